package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gateway-service/internal/api/routes"
	"gateway-service/internal/auth"
	"gateway-service/internal/bridge"
	"gateway-service/internal/config"
	"gateway-service/internal/database"
	"gateway-service/internal/gateway"
	"gateway-service/internal/metrics"
	"gateway-service/internal/ws"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting realtime gateway")
	metrics.Register()

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Transport and facade
	hub := ws.NewHub(redisClient, slog.Default())
	go hub.Run()
	defer hub.Stop()

	gw := gateway.New(hub, slog.Default(), gateway.Options{
		DedupWindow:       cfg.Gateway.DedupWindow,
		DedupCapacity:     cfg.Gateway.DedupCapacity,
		DedupBucket:       cfg.Gateway.DedupBucket,
		PayloadLimitBytes: cfg.Gateway.PayloadLimitBytes,
	})

	janitor := gateway.NewJanitor(gw.Dedup(), gw.Rooms(),
		cfg.Gateway.JanitorInterval, cfg.Gateway.RoomIdleThreshold, slog.Default())
	go janitor.Run(ctx)

	// Kafka bridge for externally published notifications
	if cfg.Kafka.Enabled {
		consumer, err := bridge.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, gw, slog.Default())
		if err != nil {
			slog.Error("Failed to start Kafka consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Kafka consumer stopped", "error", err)
			}
		}()
	}

	verifier := auth.NewVerifier(cfg.JWT.Secret)
	wsHandler := ws.NewHandler(hub, gw, verifier, slog.Default())

	router := routes.NewRouter(wsHandler)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
