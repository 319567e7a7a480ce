package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenlabs/profile-service/internal/container"
	handlers "github.com/lumenlabs/profile-service/internal/interface/http"
	"github.com/lumenlabs/profile-service/internal/interface/middleware"
	"github.com/lumenlabs/profile-service/pkg/helpers"
)

// UserModule wires auth and profile-read routes.
// Public: POST /api/login, POST /api/refresh
// Protected: POST /api/logout, GET /api/profile, GET /api/users/search
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.GET("/users/search", m.Handler.Search)
	}
}
