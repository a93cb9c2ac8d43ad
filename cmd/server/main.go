package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"outfit-studio/internal/application/services"
	"outfit-studio/internal/application/usecases"
	"outfit-studio/internal/config"
	domainrepos "outfit-studio/internal/domain/repositories"
	domainservices "outfit-studio/internal/domain/services"
	"outfit-studio/internal/infrastructure/api"
	"outfit-studio/internal/infrastructure/external"
	"outfit-studio/internal/infrastructure/repositories"
	infraservices "outfit-studio/internal/infrastructure/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	log.Printf("[boot] AI_BACKEND=%s, OUTFIT_MODEL=%s", cfg.Backend, cfg.Model)
	log.Printf("[boot] SESSION_STORE=%s, SESSION_TTL=%s", cfg.SessionStore, cfg.SessionTTL)

	// インフラ層を初期化
	clientPool := infraservices.NewClientPoolService(&domainrepos.AIClientConfig{
		ProjectID: cfg.Project,
		Location:  cfg.Location,
		APIKey:    cfg.APIKey,
	})
	defer clientPool.Close()

	aiService, err := external.NewOutfitAIService(cfg.Backend, clientPool)
	if err != nil {
		log.Fatalf("Failed to create AI service: %v", err)
	}
	defer aiService.Close()

	sessionRepository, closeStore, err := newSessionRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}
	defer closeStore()

	// ドメイン層を初期化
	outfitDomainService := domainservices.NewOutfitDomainService(aiService, cfg.Model)

	// アプリケーション層を初期化
	outfitUseCase := usecases.NewOutfitUseCase(sessionRepository, outfitDomainService, cfg.GenerationTimeout)
	uploadService := services.NewUploadService(cfg.MaxUploadBytes)

	// API層を初期化
	handler := api.NewOutfitHandler(outfitUseCase, uploadService)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// 生成中のリクエストが返るまで待つ
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func newSessionRepository(cfg *config.Config) (domainrepos.SessionRepository, func(), error) {
	if cfg.SessionStore != config.StoreRedis {
		return repositories.NewMemorySessionRepository(cfg.SessionTTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}

	return repositories.NewRedisSessionRepository(client, cfg.SessionTTL), func() { client.Close() }, nil
}
