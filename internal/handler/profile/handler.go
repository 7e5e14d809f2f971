package profile

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nwhitfield/foliochat/backend/internal/store"
	"github.com/nwhitfield/foliochat/backend/pkg/utils"
)

// Handler serves the public profile listing used by the client's profile
// picker.
type Handler struct {
	store store.Store
}

// New creates the profile handler.
func New(st store.Store) *Handler {
	return &Handler{store: st}
}

// RegisterRoutes mounts the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleListProfiles)
}

type profileView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DisplayName  string    `json:"display_name"`
	Introduction string    `json:"introduction"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load profiles")
		return
	}

	views := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, profileView{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			DisplayName:  p.DisplayName,
			Introduction: p.Introduction,
			IsDefault:    p.IsDefault,
			CreatedAt:    p.CreatedAt,
		})
	}
	utils.RespondJSON(w, http.StatusOK, views)
}
