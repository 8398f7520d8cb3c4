package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dialogrelay/internal/config"
	"dialogrelay/internal/handler"
	"dialogrelay/internal/platform"
	"dialogrelay/internal/platform/telegram"
	"dialogrelay/internal/platform/whatsapp"
	"dialogrelay/internal/service/client"
	"dialogrelay/internal/service/engine"
	"dialogrelay/internal/service/session"
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

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize dialog engine: %v", err)
	}

	hub := session.NewHub()
	registry := client.NewRegistry(cfg.Registry.MaxClients)
	defer registry.Close()

	platforms := make(map[string]platform.Platform)
	policy := session.Policy{
		TTL:             cfg.Sessions.TTL,
		MaxSessions:     cfg.Sessions.MaxSessions,
		CleanupInterval: cfg.Sessions.CleanupInterval,
		CleanupEnabled:  cfg.Sessions.CleanupEnabled,
	}

	if cfg.Telegram.Enabled() {
		c := client.New(client.Config{
			ID:           cfg.Telegram.ClientID,
			WebhookToken: cfg.Telegram.WebhookToken,
			Sessions:     policy,
		}, eng, hub)
		if err := registry.Register(c); err != nil {
			log.Fatalf("failed to register telegram client: %v", err)
		}
		platforms[c.ID()] = telegram.New(cfg.Telegram.BotToken, "")
		log.Printf("registered telegram client %s", c.ID())
	}

	if cfg.WhatsApp.Enabled() {
		c := client.New(client.Config{
			ID:           cfg.WhatsApp.ClientID,
			WebhookToken: cfg.WhatsApp.WebhookToken,
			Sessions:     policy,
		}, eng, hub)
		if err := registry.Register(c); err != nil {
			log.Fatalf("failed to register whatsapp client: %v", err)
		}
		platforms[c.ID()] = whatsapp.New(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID, "")
		log.Printf("registered whatsapp client %s", c.ID())
	}

	if len(platforms) == 0 {
		log.Println("warning: no platform clients configured, only the admin API is reachable")
	}

	router := handler.NewRouter(registry, platforms, hub)

	startServer(ctx, cfg.Server, router)
}

// buildEngine prefers the remote runtime and falls back to the embedded
// model engine when only model credentials are present.
func buildEngine(ctx context.Context, cfg *config.Config) (engine.Engine, error) {
	if cfg.Engine.Enabled() {
		log.Println("using remote dialog engine runtime")
		return engine.NewRuntime(engine.RuntimeConfig{
			BaseURL:   cfg.Engine.BaseURL,
			APIKey:    cfg.Engine.APIKey,
			ProjectID: cfg.Engine.ProjectID,
			VersionID: cfg.Engine.VersionID,
			Timeout:   cfg.Engine.Timeout,
		}), nil
	}

	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		log.Println("using embedded model engine")
		return engine.NewModel(ctx, chatModel, cfg.AI.SystemPrompt)
	}

	return nil, errors.New("no engine configured: set ENGINE_API_KEY/ENGINE_PROJECT_ID or Ark model credentials")
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("dialog relay listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
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
