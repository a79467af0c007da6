package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/cmd/bootstrap"
	handlers "github.com/code-100-precent/LingVoice/internal/handler"
	"github.com/code-100-precent/LingVoice/pkg/cache"
	"github.com/code-100-precent/LingVoice/pkg/config"
	"github.com/code-100-precent/LingVoice/pkg/embedding"
	"github.com/code-100-precent/LingVoice/pkg/enrollment"
	"github.com/code-100-precent/LingVoice/pkg/logger"
	"github.com/code-100-precent/LingVoice/pkg/matcher"
	"github.com/code-100-precent/LingVoice/pkg/middleware"
	"github.com/code-100-precent/LingVoice/pkg/voiceauth"
	"github.com/code-100-precent/LingVoice/pkg/voiceclone"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		os.Exit(1)
	}
}

func run() error {
	// 加载并校验配置
	if err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.GlobalConfig
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if err := logger.Init(&cfg.Log, cfg.Server.Mode); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	_ = bootstrap.PrintBannerFromFile("banner.txt")
	bootstrap.LogConfigInfo()

	db, err := bootstrap.SetupDatabase(os.Stdout, &bootstrap.Options{
		AutoMigrate:  true,
		SeedDemoData: true,
	})
	if err != nil {
		return fmt.Errorf("setup database: %w", err)
	}

	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	provider, err := embedding.NewClient(&cfg.Model)
	if err != nil {
		return fmt.Errorf("init embedding client: %w", err)
	}

	store, err := enrollment.NewStore(&cfg.Enrollment, db)
	if err != nil {
		return fmt.Errorf("init enrollment store: %w", err)
	}

	m, err := matcher.NewMatcher(&cfg.Matcher)
	if err != nil {
		return fmt.Errorf("init matcher: %w", err)
	}

	tokens, err := voiceauth.NewTokenIssuer(&cfg.Token)
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}

	engine, err := voiceauth.NewEngine(provider, store, m, tokens, c)
	if err != nil {
		return fmt.Errorf("init auth engine: %w", err)
	}

	var cloneService voiceclone.Service
	if cfg.Clone.Enabled {
		cloneService, err = voiceclone.NewHTTPService(&cfg.Clone)
		if err != nil {
			return fmt.Errorf("init clone service: %w", err)
		}
	}

	switch cfg.Server.Mode {
	case "dev", "development":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.LoggerMiddleware(logger.Lg))
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.TimeoutCircuitMiddleware())

	h := handlers.NewHandlers(db, engine, cloneService, int64(cfg.Server.MaxUploadMB))
	h.Register(r)

	logger.Info("server starting")
	return r.Run(cfg.Server.Addr)
}
