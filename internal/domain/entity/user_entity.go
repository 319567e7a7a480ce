package entity

import (
	"strings"
	"time"
)

// User is the canonical, server-authoritative profile record. A fetched
// User is treated as an immutable snapshot; edits happen on a ProfileDraft
// and reach the User only through a committed write.
//
// Passwords are stored as bcrypt hashes in Password.
type User struct {
	ID          string
	Email       string // read-only, never editable through a profile commit
	Password    string
	DisplayName string // server-side join of the metadata name fields
	Metadata    ProfileMetadata
	IsVerified  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileMetadata holds the free-form profile attributes persisted as jsonb.
// AvatarAssetID references an object in the asset store; the displayable
// URL is derived from it at read time and never persisted.
type ProfileMetadata struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	AvatarAssetID string `json:"avatar_asset_id,omitempty"`
}

// DisplayNameFrom joins the name fields the way the record store computes
// DisplayName, so drafts and canonical records derive it identically.
func DisplayNameFrom(firstName, lastName string) string {
	return strings.TrimSpace(firstName + " " + lastName)
}
