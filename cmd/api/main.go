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
	"go.uber.org/zap"

	"github.com/nwhitfield/foliochat/backend/internal/config"
	"github.com/nwhitfield/foliochat/backend/internal/handler"
	"github.com/nwhitfield/foliochat/backend/internal/handler/chat"
	"github.com/nwhitfield/foliochat/backend/internal/model/profile"
	"github.com/nwhitfield/foliochat/backend/internal/service/ai"
	chatservice "github.com/nwhitfield/foliochat/backend/internal/service/chat"
	"github.com/nwhitfield/foliochat/backend/internal/store"
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

	logger, err := newLogger(cfg.Database.Debug)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}

	if err := bootstrap(ctx, st); err != nil {
		logger.Fatal("failed to bootstrap defaults", zap.Error(err))
	}

	chatSvc := chatservice.NewService(st)

	var generator chat.Generator
	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn("failed to initialize generation backend, continuing without it", zap.Error(err))
		} else {
			generator = aiSvc
			logger.Info("generation backend initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Warn("generation credentials not configured, responses will carry a fixed notice")
	}

	router := handler.NewRouter(cfg, st, chatSvc, generator, logger)
	startServer(ctx, cfg.Server, router, logger)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore selects postgres when DATABASE_URL is set, otherwise the
// in-memory store for local runs.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Database.DSN == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store; conversations will not survive restarts")
		return store.NewMemory(), nil
	}

	st, err := store.OpenGorm(cfg.Database.DSN, cfg.Database.Debug)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to postgres")
	return st, nil
}

// bootstrap makes sure the settings singleton and a default profile exist, so
// a fresh deployment answers questions immediately.
func bootstrap(ctx context.Context, st store.Store) error {
	if _, err := st.GetSettings(ctx); err != nil {
		settings := profile.DefaultSettings()
		if err := st.SaveSettings(ctx, &settings); err != nil {
			return err
		}
	}

	if _, err := st.DefaultProfile(ctx); errors.Is(err, store.ErrProfileNotFound) {
		return st.SaveProfile(ctx, &profile.Profile{
			Name:        "default",
			DisplayName: "Default",
			IsDefault:   true,
		})
	} else if err != nil {
		return err
	}
	return nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("foliochat backend listening", zap.String("addr", serverCfg.Addr))
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
