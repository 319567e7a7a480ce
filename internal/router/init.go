package router

import (
	userapp "github.com/lumenlabs/profile-service/internal/application"
	"github.com/lumenlabs/profile-service/internal/container"
	"github.com/lumenlabs/profile-service/internal/infrastructure/gcs"
	pginfra "github.com/lumenlabs/profile-service/internal/infrastructure/postgres"
	handlers "github.com/lumenlabs/profile-service/internal/interface/http"
	"github.com/lumenlabs/profile-service/internal/router/modules"
)

func buildService() *userapp.Service {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())
	assets := gcs.NewAssetStore(container.GetGCS(), cfg.GCSBucket, cfg.AvatarURLTTL)

	return userapp.NewService(
		repo,
		assets,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESProfilesIndex,
		container.GetRabbitPub(),
		cfg.AvatarCleanupAfterWrite,
	)
}

// InitModules initializes all application modules and registers them with
// the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := buildService()

	userHandler := handlers.NewUserHandler(svc, container.GetJWT(), container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	sessionHandler := handlers.NewProfileSessionHandler(svc, container.GetLogger())

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewProfileModule(sessionHandler, container.GetJWT()))
}
