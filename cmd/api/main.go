package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/config"
	"github.com/zhouzirui/healthdesk/internal/handler"
	"github.com/zhouzirui/healthdesk/internal/logging"
	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	"github.com/zhouzirui/healthdesk/internal/service/chat"
	"github.com/zhouzirui/healthdesk/internal/service/forms"
	"github.com/zhouzirui/healthdesk/internal/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	profiles := assistant.Seed()
	if cfg.Assistant.ProfilesPath != "" {
		profiles, err = assistant.LoadOverrides(cfg.Assistant.ProfilesPath, profiles)
		if err != nil {
			logger.Fatal("failed to load assistant profiles", zap.Error(err))
		}
		logger.Info("assistant profiles overridden", zap.String("path", cfg.Assistant.ProfilesPath))
	}

	deps := handler.Deps{
		Profiles:  assistant.NewMemoryStore(profiles),
		Registry:  chat.NewRegistry(),
		Transport: transport.NewHTTPTransport(cfg.Assistant.BaseURL, cfg.Assistant.Timeout, logger),
		SessionOptions: chat.Options{
			Policy:         cfg.Assistant.Policy,
			RequestTimeout: cfg.Assistant.Timeout,
			Logger:         logger,
		},
		Gate: forms.NewGate(forms.Options{
			TargetBaseURL: cfg.Forms.TargetBaseURL,
			SubmitDelay:   cfg.Forms.SubmitDelay,
			Timeout:       cfg.Assistant.Timeout,
			Logger:        logger,
		}),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	}
	if cfg.Forms.TargetBaseURL == "" {
		logger.Info("no form target configured, valid submissions are accepted locally")
	}

	router := handler.NewRouter(deps)

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// event streams end once shutdown begins
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	logger.Info("healthdesk gateway listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
