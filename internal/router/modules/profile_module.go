package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenlabs/profile-service/internal/container"
	handlers "github.com/lumenlabs/profile-service/internal/interface/http"
	"github.com/lumenlabs/profile-service/internal/interface/middleware"
	"github.com/lumenlabs/profile-service/pkg/helpers"
)

// ProfileModule wires the edit-session routes. All of them sit behind
// auth; avatar uploads get a tighter per-user limit.
type ProfileModule struct {
	Handler *handlers.ProfileSessionHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileSessionHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	uploadLimiter := middleware.RateLimit(container.GetRedis(), 20, time.Minute, middleware.KeyByUserID(), nil)

	auth := rg.Group("/profile/session")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.POST("", m.Handler.Open)
		auth.GET("", m.Handler.Get)
		auth.PATCH("", m.Handler.Update)
		auth.POST("/avatar", uploadLimiter, m.Handler.UploadAvatar)
		auth.POST("/commit", m.Handler.Commit)
		auth.DELETE("", m.Handler.Close)
	}
}
