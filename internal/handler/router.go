package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nwhitfield/foliochat/backend/internal/config"
	"github.com/nwhitfield/foliochat/backend/internal/handler/chat"
	"github.com/nwhitfield/foliochat/backend/internal/handler/history"
	"github.com/nwhitfield/foliochat/backend/internal/handler/profile"
	"github.com/nwhitfield/foliochat/backend/internal/middleware"
	"github.com/nwhitfield/foliochat/backend/internal/security"
	chatservice "github.com/nwhitfield/foliochat/backend/internal/service/chat"
	"github.com/nwhitfield/foliochat/backend/internal/store"
)

// NewRouter wires HTTP routes to core services. generator may be nil when no
// generation backend is configured.
func NewRouter(cfg *config.Config, st store.Store, chatSvc *chatservice.Service, generator chat.Generator, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Security.AllowedOrigins))

	secLog := security.NewLogger(logger)
	chatHandler := chat.New(chatSvc, st, generator, secLog, logger,
		cfg.Security.AllowedOrigins, cfg.Server.PublicBaseURL)
	historyHandler := history.New(chatSvc)
	profileHandler := profile.New(st)

	// The session channel lives at the root, outside /api.
	chatHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		historyHandler.RegisterRoutes(api)
		profileHandler.RegisterRoutes(api)
	})

	// Uploaded documents (resume downloads) are served as plain files.
	uploadsDir := http.Dir(filepath.Clean(cfg.Server.UploadDir))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(uploadsDir)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
