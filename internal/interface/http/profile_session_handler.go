package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/lumenlabs/profile-service/internal/application"
	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/pkg/response"
	"github.com/lumenlabs/profile-service/pkg/validation"
)

// ProfileSessionHandler exposes the edit session to the UI: the draft,
// dirtiness, the avatar upload pipeline, and the commit protocol.
type ProfileSessionHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewProfileSessionHandler(svc *userapp.Service, logger *logrus.Logger) *ProfileSessionHandler {
	return &ProfileSessionHandler{Svc: svc, Logger: logger}
}

type sessionView struct {
	Draft       draftView         `json:"draft"`
	Dirty       entity.DirtyState `json:"dirty"`
	UploadState string            `json:"upload_state"`
	UploadError string            `json:"upload_error,omitempty"`
	CommitState string            `json:"commit_state"`
}

type draftView struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	PendingAvatarAssetID string `json:"pending_avatar_asset_id,omitempty"`
	PendingAvatarURL     string `json:"pending_avatar_url,omitempty"`
}

func viewOf(sess *userapp.EditSession) sessionView {
	draft := sess.Draft()
	uploadState, uploadErr := sess.UploadState()
	v := sessionView{
		Draft: draftView{
			FirstName:            draft.FirstName,
			LastName:             draft.LastName,
			PendingAvatarAssetID: draft.PendingAvatarAssetID,
			PendingAvatarURL:     draft.PendingAvatarURL,
		},
		Dirty:       sess.Dirty(),
		UploadState: string(uploadState),
		CommitState: string(sess.CommitState()),
	}
	if uploadErr != nil {
		v.UploadError = uploadErr.Error()
	}
	return v
}

// Open loads the canonical record and opens (or returns) the edit session.
func (h *ProfileSessionHandler) Open(c *gin.Context) {
	uid := c.GetString("userID")
	sess, err := h.Svc.OpenSession(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "failed to load profile", nil)
		return
	}
	response.Success(c, http.StatusOK, viewOf(sess), "edit session open", nil)
}

// Get returns the current draft, dirtiness, and pipeline states.
func (h *ProfileSessionHandler) Get(c *gin.Context) {
	sess := h.Svc.Session(c.GetString("userID"))
	if sess == nil {
		response.Error[any](c, http.StatusNotFound, "no edit session", nil)
		return
	}
	response.Success(c, http.StatusOK, viewOf(sess), "edit session", nil)
}

type updateDraftRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Update assigns name fields on the draft. Fields absent from the payload
// are left alone; empty strings are accepted — required-ness is a
// submission-time concern for the form, not this layer.
func (h *ProfileSessionHandler) Update(c *gin.Context) {
	sess := h.Svc.Session(c.GetString("userID"))
	if sess == nil {
		response.Error[any](c, http.StatusNotFound, "no edit session", nil)
		return
	}
	var req updateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.FirstName != nil {
		sess.SetFirstName(*req.FirstName)
	}
	if req.LastName != nil {
		sess.SetLastName(*req.LastName)
	}
	response.Success(c, http.StatusOK, viewOf(sess), "draft updated", nil)
}

// UploadAvatar feeds the selected file into the avatar pipeline. The
// pipeline runs asynchronously; the reply carries the current state and
// clients poll Get for progress.
func (h *ProfileSessionHandler) UploadAvatar(c *gin.Context) {
	sess := h.Svc.Session(c.GetString("userID"))
	if sess == nil {
		response.Error[any](c, http.StatusNotFound, "no edit session", nil)
		return
	}
	file, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}
	defer func() { _ = src.Close() }()

	// Buffer the upload: the multipart temp file is gone once this
	// handler returns, but the pipeline outlives the request.
	body, err := io.ReadAll(src)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}

	sess.SelectFile(bytes.NewReader(body), file.Filename, file.Header.Get("Content-Type"))
	response.Success(c, http.StatusAccepted, viewOf(sess), "avatar upload started", nil)
}

// Commit runs the commit protocol and reports the reseeded state.
func (h *ProfileSessionHandler) Commit(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.CommitProfile(c.Request.Context(), uid)
	switch {
	case errors.Is(err, userapp.ErrNoSession):
		response.Error[any](c, http.StatusNotFound, "no edit session", nil)
		return
	case errors.Is(err, userapp.ErrNothingToCommit):
		response.Success(c, http.StatusOK, gin.H{"committed": false}, "nothing to commit", nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusBadRequest, "failed to update profile", err.Error())
		return
	}
	var sessView any
	if sess := h.Svc.Session(uid); sess != nil {
		sessView = viewOf(sess)
	}
	response.Success(c, http.StatusOK, gin.H{
		"committed": true,
		"profile": gin.H{
			"id":           u.ID,
			"display_name": u.DisplayName,
			"metadata": gin.H{
				"first_name":      u.Metadata.FirstName,
				"last_name":       u.Metadata.LastName,
				"avatar_asset_id": u.Metadata.AvatarAssetID,
			},
			"updated_at": u.UpdatedAt,
		},
		"session": sessView,
	}, "profile updated", nil)
}

// Close discards the edit session, dropping the draft and invalidating
// any in-flight upload.
func (h *ProfileSessionHandler) Close(c *gin.Context) {
	h.Svc.CloseSession(c.GetString("userID"))
	response.Success[any](c, http.StatusOK, gin.H{"closed": true}, "edit session closed", nil)
}
