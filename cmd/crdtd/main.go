// Command crdtd runs the demo HTTP service exposing the sequence CRDT core
// over a REST API, wiring config -> logger -> Redis -> site registration ->
// document registry -> router, in that order.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/edirooss/seqcrdt/internal/config"
	"github.com/edirooss/seqcrdt/internal/httpapi"
	"github.com/edirooss/seqcrdt/internal/siteid"
	"github.com/edirooss/seqcrdt/pkg/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()

	log := logging.For(cfg.Env)
	defer log.Sync()
	log = log.Named("main")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis unreachable", zap.Error(err))
	}

	// Every process instance gets a fresh site identity on boot. Prior
	// Positions allocated under a previous run's site ID remain valid and
	// orderable; only new allocations from this run carry the new one.
	sites := siteid.New()
	site, err := sites.Register(uuid.New())
	if err != nil {
		log.Fatal("site registration failed", zap.Error(err))
	}
	log.Info("registered local site", zap.Uint16("site", site))

	reg := httpapi.NewRegistry(log, rdb, cfg.RedisKeyPrefix, site, cfg)
	router := httpapi.NewRouter(cfg, log, reg)

	httpserver := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,

		MaxHeaderBytes: 1 << 15,

		ErrorLog: zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}

	log.Info("running HTTP server", zap.String("addr", cfg.Addr))
	if err := httpserver.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", zap.Error(err))
	}
}
