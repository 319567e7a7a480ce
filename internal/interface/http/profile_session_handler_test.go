package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/lumenlabs/profile-service/internal/application"
	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/internal/domain/repository"
)

type stubRepo struct {
	user *entity.User
}

func (r *stubRepo) Create(ctx context.Context, u *entity.User) error { return nil }

func (r *stubRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, errors.New("no rows")
	}
	cp := *r.user
	return &cp, nil
}

func (r *stubRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, errors.New("no rows")
	}
	cp := *r.user
	return &cp, nil
}

func (r *stubRepo) UpdateProfile(ctx context.Context, id string, w repository.ProfileWrite) (*entity.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, errors.New("no rows")
	}
	r.user.DisplayName = w.DisplayName
	r.user.Metadata = w.Metadata
	r.user.UpdatedAt = time.Now()
	cp := *r.user
	return &cp, nil
}

type stubAssets struct{}

func (stubAssets) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	return "asset-" + filename, nil
}

func (stubAssets) ResolveURL(ctx context.Context, assetID string) (string, time.Time, error) {
	return "https://assets.example/" + assetID, time.Now().Add(15 * time.Minute), nil
}

func (stubAssets) Delete(ctx context.Context, assetID string) error { return nil }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// asUser injects what the auth middleware would have set.
func asUser(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func newSessionRouter(repo *stubRepo) (*gin.Engine, *userapp.Service) {
	gin.SetMode(gin.TestMode)
	svc := userapp.NewService(repo, stubAssets{}, nil, nil, testLogger(), nil, "", nil, false)
	h := NewProfileSessionHandler(svc, testLogger())

	r := gin.New()
	g := r.Group("/api/profile/session", asUser("u1"))
	g.POST("", h.Open)
	g.GET("", h.Get)
	g.PATCH("", h.Update)
	g.POST("/avatar", h.UploadAvatar)
	g.POST("/commit", h.Commit)
	g.DELETE("", h.Close)
	return r, svc
}

func seedUser() *entity.User {
	return &entity.User{
		ID:          "u1",
		Email:       "ann@example.com",
		DisplayName: "Ann Lee",
		Metadata: entity.ProfileMetadata{
			FirstName:     "Ann",
			LastName:      "Lee",
			AvatarAssetID: "A1",
		},
	}
}

func do(t *testing.T, r *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
	return envelope.Data
}

func TestSessionLifecycle(t *testing.T) {
	r, _ := newSessionRouter(&stubRepo{user: seedUser()})

	// No session yet.
	if w := do(t, r, http.MethodGet, "/api/profile/session", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("GET before open: got %d, want 404", w.Code)
	}

	w := do(t, r, http.MethodPost, "/api/profile/session", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("open: got %d, body %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	draft := data["draft"].(map[string]any)
	if draft["first_name"] != "Ann" || draft["last_name"] != "Lee" {
		t.Errorf("seeded draft: %v", draft)
	}
	dirty := data["dirty"].(map[string]any)
	if dirty["any"] != false {
		t.Errorf("fresh session should be clean: %v", dirty)
	}

	w = do(t, r, http.MethodDelete, "/api/profile/session", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("close: got %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/profile/session", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("GET after close: got %d, want 404", w.Code)
	}
}

func TestUpdateDraftPartialPayload(t *testing.T) {
	r, _ := newSessionRouter(&stubRepo{user: seedUser()})
	do(t, r, http.MethodPost, "/api/profile/session", nil, "")

	w := do(t, r, http.MethodPatch, "/api/profile/session",
		strings.NewReader(`{"first_name":"Anna"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("patch: got %d, body %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	draft := data["draft"].(map[string]any)
	if draft["first_name"] != "Anna" {
		t.Errorf("first_name: got %v", draft["first_name"])
	}
	if draft["last_name"] != "Lee" {
		t.Errorf("absent field must be untouched, got %v", draft["last_name"])
	}
	dirty := data["dirty"].(map[string]any)
	if dirty["first_name"] != true || dirty["last_name"] != false {
		t.Errorf("dirty: %v", dirty)
	}
}

func TestUpdateDraftRejectsMalformedJSON(t *testing.T) {
	r, _ := newSessionRouter(&stubRepo{user: seedUser()})
	do(t, r, http.MethodPost, "/api/profile/session", nil, "")

	w := do(t, r, http.MethodPatch, "/api/profile/session",
		strings.NewReader(`{"first_name":`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed json: got %d, want 400", w.Code)
	}
}

func TestUploadAvatarStartsPipeline(t *testing.T) {
	r, _ := newSessionRouter(&stubRepo{user: seedUser()})
	do(t, r, http.MethodPost, "/api/profile/session", nil, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("fake png bytes")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	w := do(t, r, http.MethodPost, "/api/profile/session/avatar", &buf, mw.FormDataContentType())
	if w.Code != http.StatusAccepted {
		t.Fatalf("upload: got %d, body %s", w.Code, w.Body.String())
	}

	// The pipeline is asynchronous; poll Get until it settles.
	deadline := time.Now().Add(2 * time.Second)
	for {
		gw := do(t, r, http.MethodGet, "/api/profile/session", nil, "")
		data := decodeData(t, gw)
		if data["upload_state"] == "ready" {
			draft := data["draft"].(map[string]any)
			if draft["pending_avatar_asset_id"] != "asset-me.png" {
				t.Errorf("pending asset: %v", draft["pending_avatar_asset_id"])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("upload never became ready: %v", data["upload_state"])
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUploadAvatarMissingFile(t *testing.T) {
	r, _ := newSessionRouter(&stubRepo{user: seedUser()})
	do(t, r, http.MethodPost, "/api/profile/session", nil, "")

	w := do(t, r, http.MethodPost, "/api/profile/session/avatar", strings.NewReader(""), "multipart/form-data; boundary=x")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: got %d, want 400", w.Code)
	}
}

func TestCommitFlow(t *testing.T) {
	repo := &stubRepo{user: seedUser()}
	r, _ := newSessionRouter(repo)
	do(t, r, http.MethodPost, "/api/profile/session", nil, "")

	// Clean session commits nothing.
	w := do(t, r, http.MethodPost, "/api/profile/session/commit", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("clean commit: got %d", w.Code)
	}
	if data := decodeData(t, w); data["committed"] != false {
		t.Errorf("clean commit: %v", data)
	}

	do(t, r, http.MethodPatch, "/api/profile/session",
		strings.NewReader(`{"first_name":"Anna"}`), "application/json")

	w = do(t, r, http.MethodPost, "/api/profile/session/commit", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("commit: got %d, body %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	if data["committed"] != true {
		t.Fatalf("commit flag: %v", data)
	}
	profile := data["profile"].(map[string]any)
	if profile["display_name"] != "Anna Lee" {
		t.Errorf("display_name: %v", profile["display_name"])
	}
	sess := data["session"].(map[string]any)
	if sess["dirty"].(map[string]any)["any"] != false {
		t.Errorf("session should be clean after commit: %v", sess["dirty"])
	}
	if repo.user.DisplayName != "Anna Lee" {
		t.Errorf("record store not updated: %q", repo.user.DisplayName)
	}
}

func TestCommitWithoutSession(t *testing.T) {
	r, _ := newSessionRouter(&stubRepo{user: seedUser()})
	w := do(t, r, http.MethodPost, "/api/profile/session/commit", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("commit without session: got %d, want 404", w.Code)
	}
}

func TestOpenSessionFetchFailure(t *testing.T) {
	r, _ := newSessionRouter(&stubRepo{}) // no user seeded
	w := do(t, r, http.MethodPost, "/api/profile/session", nil, "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("open with failing fetch: got %d, want 502", w.Code)
	}
}
