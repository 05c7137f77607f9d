package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/auth"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/config"
	internalhttp "github.com/decexpressosaoluiz-blip/sle-pendencias/internal/http"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/planilha"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/service"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	cliente, err := planilha.New(planilha.Config{
		CSVURL:    cfg.CSVURL,
		ScriptURL: cfg.ScriptURL,
		Timeout:   cfg.RemoteTimeout,
	})
	if err != nil {
		return fmt.Errorf("planilha: %w", err)
	}

	uploader, err := novoUploader(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(cliente, redisClient, jwtManager, cfg.JWTRefreshTTL)

	pendLogger := log.With().Str("component", "pendencias").Logger()
	pendencias := service.NewPendenciaService(cliente, uploader, cfg.RefreshInterval, pendLogger)

	ctx := context.Background()
	pendencias.Start(ctx)
	defer pendencias.Stop()

	handler := internalhttp.NewRouter(cfg, redisClient, cliente, internalhttp.Services{
		Auth:         authService,
		Pendencias:   pendencias,
		Cadastro:     service.NewCadastroService(cliente),
		Notificacoes: service.NewNotificacaoService(pendencias, redisClient, cfg.JWTRefreshTTL),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("API encerrada")
	return nil
}

func novoUploader(cfg config.StorageConfig) (storage.Uploader, error) {
	switch cfg.Provider {
	case "", "noop":
		return storage.NoopUploader{}, nil
	case "s3", "r2", "cloudflare-r2":
		return storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			KeyPrefix:    cfg.S3KeyPrefix,
			PublicDomain: cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("provedor %s não suportado", cfg.Provider)
	}
}
