package history

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nwhitfield/foliochat/backend/internal/model/chat"
	chatservice "github.com/nwhitfield/foliochat/backend/internal/service/chat"
	"github.com/nwhitfield/foliochat/backend/pkg/utils"
)

// untitledSession labels sessions whose first exchange never completed.
const untitledSession = "New Chat"

// Handler serves the conversation history surface.
type Handler struct {
	chatSvc *chatservice.Service
}

// New creates the history handler.
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the history routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.handleList)
	r.Get("/history/{sessionID}/messages", h.handleMessages)
	r.Delete("/history/{sessionID}", h.handleDelete)
}

type sessionSummary struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

type transcriptResponse struct {
	SessionID string        `json:"session_id"`
	Title     string        `json:"title"`
	Messages  []messageView `json:"messages"`
}

type messageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func userIdentifier(r *http.Request) string {
	if id := r.URL.Query().Get("user_identifier"); id != "" {
		return id
	}
	return r.Header.Get("X-User-Identifier")
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatSvc.ListHistory(r.Context(), userIdentifier(r))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, session := range sessions {
		title := session.Title
		if title == "" {
			title = untitledSession
		}
		summaries = append(summaries, sessionSummary{
			SessionID:    session.ID,
			Title:        title,
			LastActivity: session.LastActivity,
			MessageCount: session.MessageCount,
		})
	}
	utils.RespondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if errors.Is(err, chatservice.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	// Transcripts are private to the identifier that created the session.
	if session.UserIdentifier != "" && session.UserIdentifier != userIdentifier(r) {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	utils.RespondJSON(w, http.StatusOK, transcriptResponse{
		SessionID: session.ID,
		Title:     session.Title,
		Messages:  toMessageViews(messages),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	err := h.chatSvc.DeleteSession(r.Context(), sessionID)
	if errors.Is(err, chatservice.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func toMessageViews(messages []chat.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return views
}
