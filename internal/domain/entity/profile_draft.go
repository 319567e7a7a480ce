package entity

// ProfileDraft is the session-local, not-yet-persisted profile state. It is
// seeded from the canonical metadata when the edit session opens and only
// reaches the record store through a commit.
type ProfileDraft struct {
	FirstName            string
	LastName             string
	PendingAvatarAssetID string
	// PendingAvatarURL is a display-only preview of the pending asset. It
	// may stay empty when URL resolution failed even though the asset
	// itself uploaded fine.
	PendingAvatarURL string
}

// DraftFrom seeds a draft from a canonical record. A nil record yields a
// zero draft.
func DraftFrom(u *User) ProfileDraft {
	if u == nil {
		return ProfileDraft{}
	}
	return ProfileDraft{
		FirstName:            u.Metadata.FirstName,
		LastName:             u.Metadata.LastName,
		PendingAvatarAssetID: u.Metadata.AvatarAssetID,
	}
}

// DirtyState reports, field by field, whether the draft diverges from the
// canonical record. An absent canonical record compares as empty values.
type DirtyState struct {
	FirstName bool `json:"first_name"`
	LastName  bool `json:"last_name"`
	Avatar    bool `json:"avatar"`
	Any       bool `json:"any"`
}

// DirtyAgainst computes the draft's dirtiness against a canonical record.
func (d ProfileDraft) DirtyAgainst(u *User) DirtyState {
	var meta ProfileMetadata
	if u != nil {
		meta = u.Metadata
	}
	s := DirtyState{
		FirstName: d.FirstName != meta.FirstName,
		LastName:  d.LastName != meta.LastName,
		Avatar:    d.PendingAvatarAssetID != meta.AvatarAssetID,
	}
	s.Any = s.FirstName || s.LastName || s.Avatar
	return s
}
