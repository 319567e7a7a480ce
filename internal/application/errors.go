package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// ErrFetch: the canonical record could not be loaded and no prior
	// record is available, so no draft can be seeded.
	ErrFetch = errors.New("canonical record fetch failed")
	// ErrNothingToCommit: commit called with a clean draft; no write issued.
	ErrNothingToCommit = errors.New("nothing to commit")
	// ErrCommit: the profile write failed. Draft and cache are preserved
	// so the caller may retry.
	ErrCommit = errors.New("profile commit failed")
	// ErrUpload: the avatar binary upload failed; the draft is unchanged.
	ErrUpload = errors.New("avatar upload failed")
	// ErrResolution: the asset uploaded but its preview URL could not be
	// resolved; the asset id is still usable for commit.
	ErrResolution = errors.New("avatar url resolution failed")

	// ErrNoSession: no edit session is open for the user.
	ErrNoSession = errors.New("no active edit session")
)
