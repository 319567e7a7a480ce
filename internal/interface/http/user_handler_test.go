package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	userapp "github.com/lumenlabs/profile-service/internal/application"
)

func newUserRouter(repo *stubRepo, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := userapp.NewService(repo, stubAssets{}, nil, nil, testLogger(), nil, "", nil, false)
	h := NewUserHandler(svc, nil, testLogger(), "localhost", false)

	r := gin.New()
	g := r.Group("/api", asUser(uid))
	g.GET("/profile", h.GetProfile)
	g.GET("/users/search", h.Search)
	return r
}

func TestGetProfile(t *testing.T) {
	r := newUserRouter(&stubRepo{user: seedUser()}, "u1")

	w := do(t, r, http.MethodGet, "/api/profile", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get profile: got %d, body %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	if data["display_name"] != "Ann Lee" {
		t.Errorf("display_name: %v", data["display_name"])
	}
	if data["avatar_url"] != "https://assets.example/A1" {
		t.Errorf("avatar_url: %v", data["avatar_url"])
	}
	meta := data["metadata"].(map[string]any)
	if meta["avatar_asset_id"] != "A1" {
		t.Errorf("metadata: %v", meta)
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	r := newUserRouter(&stubRepo{user: seedUser()}, "nobody")

	if w := do(t, r, http.MethodGet, "/api/profile", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: got %d, want 404", w.Code)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	r := newUserRouter(&stubRepo{user: seedUser()}, "u1")

	if w := do(t, r, http.MethodGet, "/api/users/search", nil, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing query: got %d, want 400", w.Code)
	}
}

func TestSearchWithoutBackend(t *testing.T) {
	r := newUserRouter(&stubRepo{user: seedUser()}, "u1")

	// Elasticsearch is optional; without it search degrades to empty results.
	w := do(t, r, http.MethodGet, "/api/users/search?q=ann", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("search without elasticsearch: got %d, want 200", w.Code)
	}
}
