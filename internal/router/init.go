package router

import (
	userapp "authgate/internal/application"
	"authgate/internal/container"
	repo "authgate/internal/domain/repository"
	"authgate/internal/infrastructure/mongodb"
	pginfra "authgate/internal/infrastructure/postgres"
	handlers "authgate/internal/interface/http"
	"authgate/internal/interface/web"
	"authgate/internal/router/modules"
	"authgate/pkg/helpers"
)

// InitModules builds the application wiring from the container singletons and
// registers every module with the registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	userRepo := mongodb.NewUserRepository(container.GetMongo())

	var uploader userapp.ImageUploader
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		uploader = helpers.NewGCSUploader(gcs, cfg.GCSBucket)
	}

	svc := userapp.NewService(
		userRepo,
		container.GetJWT(),
		uploader,
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
		container.GetRabbitPub(),
		cfg.AppName,
		cfg.MailSendEnabled,
	)

	var audit repo.AuditLogRepository
	if pool := container.GetPGPool(); pool != nil {
		audit = pginfra.NewAuditLogRepository(pool)
	}

	authHandler := handlers.NewAuthHandler(
		svc,
		audit,
		container.GetRedis(),
		container.GetLogger(),
		cfg,
		container.GetGoogleOAuth(),
	)
	userHandler := handlers.NewUserHandler(svc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
	r.AddPages(modules.NewWebModule(web.NewPageHandler(cfg.AppName)))
}
