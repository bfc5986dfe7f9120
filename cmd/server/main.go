package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/seedplatform/control-interface/internal/client"
	"github.com/seedplatform/control-interface/internal/config"
	"github.com/seedplatform/control-interface/internal/handler"
	"github.com/seedplatform/control-interface/internal/logger"
	"github.com/seedplatform/control-interface/internal/service"
	"github.com/seedplatform/control-interface/internal/session"
)

func main() {
	// Load application config
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	store, err := session.Open(cfg.Sessions.Path, cfg.Sessions.TTL, appLogger)
	if err != nil {
		log.Fatalf("❌ Session store initialization failed: %v", err)
	}
	defer store.Close()

	svcs := cfg.Services
	auth := client.NewAuth(svcs.Auth.URL, appLogger)
	identity := client.NewIdentityStore(svcs.IdentityStore.URL, svcs.IdentityStore.Token, appLogger)
	hub := client.NewHub(svcs.Hub.URL, svcs.Hub.Token, appLogger)
	messaging := client.NewStageBasedMessaging(svcs.StageBasedMessaging.URL, svcs.StageBasedMessaging.Token, appLogger)
	sender := client.NewMessageSender(svcs.MessageSender.URL, svcs.MessageSender.Token, appLogger)
	metrics := client.NewMetrics(svcs.Metrics.URL, svcs.Metrics.Token, appLogger)

	authSvc := service.NewAuthService(auth, store, appLogger)
	consoleSvc := service.NewConsoleService(identity, hub, messaging, sender, metrics,
		cfg.Paging.PageSize, appLogger)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.Register(engine, store, authSvc, consoleSvc)

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	appLogger.Info().Str("addr", addr).Msg("🚀 Service started")
	if err := engine.Run(addr); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}
