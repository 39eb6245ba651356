package main

import (
	"os"

	"github.com/fanalyst/trading-api/internal/auth"
	"github.com/fanalyst/trading-api/internal/config"
	"github.com/fanalyst/trading-api/internal/database"
	"github.com/fanalyst/trading-api/internal/logger"
	"github.com/fanalyst/trading-api/internal/mailer"
	"github.com/fanalyst/trading-api/internal/server"
	"github.com/fanalyst/trading-api/internal/storage"
	"github.com/fanalyst/trading-api/internal/utils"
)

func main() {
	cfg := config.Load()
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	if err := utils.ValidateJWTSecret(); err != nil {
		logger.Log.Fatal().Err(err).Msg("JWT configuration error")
	}

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("database connection failed")
	}

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal().Err(err).Msg("migration failed")
	}
	logger.Log.Info().Msg("database migrated")

	// ========== STORAGE SETUP ==========
	if err := storage.InitLocal(); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to initialize local storage")
	}

	if cfg.UseS3 {
		if cfg.S3Bucket != "" && cfg.S3Region != "" {
			if err := storage.InitS3(cfg.S3Bucket, cfg.S3Region, cfg.CloudFrontURL); err != nil {
				logger.Log.Warn().Err(err).Msg("S3 initialization failed, falling back to local storage")
				storage.SetLocalMode(true)
			} else {
				logger.Log.Info().Str("bucket", cfg.S3Bucket).Str("region", cfg.S3Region).Msg("S3 initialized")
			}
		} else {
			logger.Log.Warn().Msg("USE_S3=true but S3_BUCKET or S3_REGION not configured, using local storage")
		}
	}

	// ========== AUTH SETUP ==========
	auth.Configure(cfg, mailer.NewSMTP(cfg))

	// ========== START SERVER ==========
	app := server.New(db)

	logger.Log.Info().
		Str("addr", cfg.ServerAddr()).
		Str("storage", storage.Mode()).
		Msg("server starting")

	if err := app.Listen(cfg.ServerAddr()); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to start server")
	}
}
