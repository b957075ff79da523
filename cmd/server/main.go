package main

import (
	"context"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/blob"
	"github.com/classmatch/classmatch/internal/cache"
	"github.com/classmatch/classmatch/internal/config"
	"github.com/classmatch/classmatch/internal/db"
	"github.com/classmatch/classmatch/internal/logger"
	"github.com/classmatch/classmatch/internal/server"
	"github.com/classmatch/classmatch/internal/service/auth"
	"github.com/classmatch/classmatch/internal/service/chat"
	"github.com/classmatch/classmatch/internal/service/discover"
	"github.com/classmatch/classmatch/internal/service/match"
	"github.com/classmatch/classmatch/internal/service/profile"
	"github.com/classmatch/classmatch/internal/ws"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log)

	// Image storage; the API runs without it when the bucket isn't set
	var images profile.ImageStore
	if cfg.Blob.Bucket != "" {
		store, err := blob.NewStore(context.Background(), cfg, log)
		if err != nil {
			log.Error("failed to init blob store", "err", err)
			return
		}
		images = store
	} else {
		log.Warn("blob storage not configured, image uploads disabled")
	}

	authSvc := auth.NewService(appCtx)

	hub := ws.NewHub(log)
	go hub.Run()

	registrars := []server.Registrar{
		auth.NewRegistrar(authSvc),
		profile.NewRegistrar(appCtx, images),
		discover.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx, hub),
		ws.NewRegistrar(hub, authSvc),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting http server", "addr", addr)

	if err := server.StartHTTPServer(cfg, authSvc, registrars...); err != nil {
		log.Error("http server exited", "err", err)
	}
}
