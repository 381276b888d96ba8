package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	_ "userdirectory/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"userdirectory/internal/auth"
	"userdirectory/internal/cache"
	"userdirectory/internal/config"
	"userdirectory/internal/db"
	"userdirectory/internal/handler"
	"userdirectory/internal/logging"
	"userdirectory/internal/model"
	"userdirectory/internal/repository"
	"userdirectory/internal/router"
	"userdirectory/internal/service"
)

// @title User Directory API
// @version 1.0
// @description User directory API with user management, search and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.WithError(err).Fatal("database init")
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping users table")
		if err := gormDB.Migrator().DropTable(&model.User{}); err != nil {
			logger.WithError(err).Warn("failed to drop users table (may not exist)")
		}
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		logger.WithError(err).Fatal("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger)
	defer cacheClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.WithError(err).Warn("redis unavailable, running without cache and token revocation")
	}
	cancel()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(userRepo, hasher, cacheClient, cfg.CacheTTL())
	authService := service.NewAuthService(userRepo, hasher, jwtService, tokenStore)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService)
	authHandler := handler.NewAuthHandler(authService, jwtService)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, logger, jwtService, authService, userHandler, authHandler)

	logger.Infof("Swagger documentation available at: %s", swaggerURL(cfg.SwaggerHost, cfg.ServerPort))

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("server start")
	}
}

func swaggerURL(host, port string) string {
	if host == "" {
		host = "localhost:" + port
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
