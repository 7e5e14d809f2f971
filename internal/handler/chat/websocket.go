package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nwhitfield/foliochat/backend/internal/analysis/intent"
	"github.com/nwhitfield/foliochat/backend/internal/analysis/safety"
	"github.com/nwhitfield/foliochat/backend/internal/geo"
	chatmodel "github.com/nwhitfield/foliochat/backend/internal/model/chat"
	"github.com/nwhitfield/foliochat/backend/internal/model/profile"
	"github.com/nwhitfield/foliochat/backend/internal/security"
	"github.com/nwhitfield/foliochat/backend/internal/service/ai"
	chatservice "github.com/nwhitfield/foliochat/backend/internal/service/chat"
	"github.com/nwhitfield/foliochat/backend/internal/store"
)

// engineErrorMessage is emitted as a chunk when the fragment sequence itself
// breaks inside the engine; the turn still completes and persists normally.
const engineErrorMessage = "I encountered an error generating the response."

// notConfiguredMessage replaces generation output when no backend is wired.
const notConfiguredMessage = "Generation backend not configured. Please add an API key to use AI responses."

const genericErrorMessage = "Internal server error"

// Generator abstracts the generation adapter so tests can substitute a
// synthetic fragment source.
type Generator interface {
	StreamingEnabled() bool
	GenerateReply(ctx context.Context, prompt, mode string) string
	StreamReply(ctx context.Context, prompt, mode string) *ai.Stream
}

// Handler owns the per-connection session protocol: origin validation, room
// membership, the event exchange and turn sequencing.
type Handler struct {
	chatSvc        *chatservice.Service
	store          store.Store
	generator      Generator
	hub            *Hub
	secLog         *security.Logger
	logger         *zap.Logger
	allowedOrigins []string
	publicBaseURL  string
	upgrader       websocket.Upgrader
	locate         func(ctx context.Context, ip string) string
	// readWait bounds the silence between inbound frames. A turn blocks the
	// read loop, so the deadline is re-armed after each turn completes.
	readWait time.Duration
}

// New creates the protocol handler. generator may be nil when no backend is
// configured; sessions still work but answers degrade to a fixed notice.
func New(chatSvc *chatservice.Service, st store.Store, generator Generator, secLog *security.Logger, logger *zap.Logger, allowedOrigins []string, publicBaseURL string) *Handler {
	return &Handler{
		chatSvc:        chatSvc,
		store:          st,
		generator:      generator,
		hub:            NewHub(),
		secLog:         secLog,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is validated before the upgrade, with the
			// referrer fallback the checker here cannot express.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		locate:   geo.Locate,
		readWait: 60 * time.Second,
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// client wraps a websocket connection with a write lock so broadcasts from
// different turns never interleave a frame.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if reason, ok := h.validateOrigin(r); !ok {
		// No session lookup or creation happens for rejected
		// connections; the client only sees a closed connection.
		h.secLog.RejectedConnection(reason, r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userIdentifier := r.URL.Query().Get("user_identifier")
	if userIdentifier == "" {
		userIdentifier = r.Header.Get("X-User-Identifier")
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}
	h.hub.Join(sessionID, cl)
	defer h.hub.Leave(sessionID, cl)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := h.attachSession(ctx, r, sessionID, userIdentifier); err != nil {
		h.logger.Error("failed to attach session", zap.String("session_id", sessionID), zap.Error(err))
		_ = cl.WriteJSON(Event{Event: eventError, Data: errorPayload{Message: genericErrorMessage}})
		return
	}

	_ = cl.WriteJSON(Event{Event: eventConnected, Data: connectedPayload{SessionID: sessionID}})

	conn.SetReadDeadline(time.Now().Add(h.readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readWait))
		return nil
	})
	go h.pingLoop(ctx, cl)

	for {
		var evt inboundEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		switch evt.Event {
		case "send_message":
			var payload sendMessagePayload
			if err := json.Unmarshal(evt.Data, &payload); err != nil {
				_ = cl.WriteJSON(Event{Event: eventError, Data: errorPayload{Message: "invalid payload"}})
				continue
			}
			if payload.SessionID == "" {
				payload.SessionID = sessionID
			}
			h.handleSendMessage(ctx, cl, payload)
		default:
			_ = cl.WriteJSON(Event{Event: eventError, Data: errorPayload{Message: "unsupported event: " + evt.Event}})
		}

		// Re-armed after dispatch so a long turn cannot expire the
		// deadline for the next frame.
		conn.SetReadDeadline(time.Now().Add(h.readWait))
	}
}

// validateOrigin checks the declared origin against the allow-list. The
// Origin header takes priority; the Referer origin is the fallback; a
// request carrying neither is rejected.
func (h *Handler) validateOrigin(r *http.Request) (string, bool) {
	origin := r.Header.Get("Origin")
	if origin != "" {
		if h.originAllowed(origin) {
			return "", true
		}
		return "unauthorized origin: " + origin, false
	}

	referer := r.Header.Get("Referer")
	if referer != "" {
		u, err := url.Parse(referer)
		if err == nil && u.Scheme != "" && u.Host != "" && h.originAllowed(u.Scheme+"://"+u.Host) {
			return "", true
		}
		return "unauthorized referer: " + referer, false
	}

	return "no origin or referer header", false
}

func (h *Handler) originAllowed(origin string) bool {
	for _, allowed := range h.allowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// attachSession loads the session for the resolved identifier, creating the
// record on first contact.
func (h *Handler) attachSession(ctx context.Context, r *http.Request, sessionID, userIdentifier string) error {
	_, err := h.chatSvc.GetSession(ctx, sessionID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrSessionNotFound) {
		return err
	}

	ip := r.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
		ip = host
	}

	_, err = h.chatSvc.ResolveSession(ctx, sessionID, chatservice.SessionMeta{
		IPAddress:      ip,
		Location:       h.locate(ctx, ip),
		UserAgent:      r.UserAgent(),
		UserIdentifier: userIdentifier,
	})
	if err != nil {
		return err
	}
	h.secLog.SessionCreated(sessionID, r.RemoteAddr)
	return nil
}

// handleSendMessage runs one complete turn. Steps execute strictly
// sequentially; the per-session turn lock keeps overlapping messages on the
// same session from corrupting state.
func (h *Handler) handleSendMessage(ctx context.Context, cl *client, payload sendMessagePayload) {
	text := strings.TrimSpace(payload.Message)
	if text == "" {
		return
	}

	unlock := h.hub.LockTurn(payload.SessionID)
	defer unlock()

	session, err := h.chatSvc.GetSession(ctx, payload.SessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = cl.WriteJSON(Event{Event: eventError, Data: errorPayload{Message: "Session not found"}})
		return
	}
	if err != nil {
		h.failTurn(cl, "load session", err)
		return
	}

	// History is captured before this turn's user message is persisted, so
	// the first turn of a session carries no history at all.
	history, err := h.chatSvc.RecentHistory(ctx, session.ID)
	if err != nil {
		h.failTurn(cl, "load history", err)
		return
	}

	userMsg, err := h.chatSvc.RecordUserMessage(ctx, session.ID, text)
	if err != nil {
		h.failTurn(cl, "persist user message", err)
		return
	}

	h.hub.Broadcast(session.ID, Event{Event: eventMessage, Data: messagePayload{
		Role:      userMsg.Role,
		Content:   userMsg.Content,
		Timestamp: userMsg.Timestamp,
	}})
	h.hub.Broadcast(session.ID, Event{Event: eventTyping, Data: typingPayload{Typing: true}})

	// The assistant message keeps this timestamp even if generation is
	// slow, so persisted ordering reflects turn-taking.
	startedAt := time.Now().UTC()
	h.hub.Broadcast(session.ID, Event{Event: eventMessageStart, Data: messageStartPayload{
		Role:      chatmodel.RoleAssistant,
		Timestamp: startedAt,
	}})

	var accumulated strings.Builder
	if err := h.produceResponse(ctx, session.ID, payload, text, history, &accumulated); err != nil {
		// The user message stays committed; the turn has no assistant
		// side.
		h.failTurn(cl, "assemble context", err)
		return
	}

	h.hub.Broadcast(session.ID, Event{Event: eventMessageEnd, Data: struct{}{}})
	h.hub.Broadcast(session.ID, Event{Event: eventTyping, Data: typingPayload{Typing: false}})

	if err := h.chatSvc.RecordAssistantMessage(ctx, session.ID, accumulated.String(), startedAt, text); err != nil {
		// The user message already committed; it stays. Blocking the
		// conversation over an orphaned turn would be worse.
		h.logger.Error("failed to persist assistant message", zap.String("session_id", session.ID), zap.Error(err))
		_ = cl.WriteJSON(Event{Event: eventError, Data: errorPayload{Message: genericErrorMessage}})
	}
}

// produceResponse runs the safety filter, intent detection, context assembly
// and generation, emitting chunks in production order. A store failure during
// context assembly is returned as an error and aborts the turn; generation
// failures degrade into the transcript instead.
func (h *Handler) produceResponse(ctx context.Context, sessionID string, payload sendMessagePayload, text string, history []chatmodel.Message, accumulated *strings.Builder) error {
	if phrase, violated := safety.Check(text); violated {
		h.secLog.SuspiciousMessage(text, phrase, sessionID)
		h.emitChunk(sessionID, accumulated, safety.RefusalMessage)
		return nil
	}

	link := h.resolveDownloadLink(ctx, text, payload.ProfileID)

	mode := payload.Mode
	if mode != ai.ModeSimple {
		mode = ai.ModeConversational
	}

	prompt, err := h.assemblePrompt(ctx, mode, payload.ProfileID, history, text)
	if err != nil {
		return err
	}

	switch {
	case h.generator == nil:
		h.emitChunk(sessionID, accumulated, notConfiguredMessage)
	case h.generator.StreamingEnabled():
		stream := h.generator.StreamReply(ctx, prompt, mode)
		defer stream.Close()
		for {
			frag, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				h.logger.Warn("stream broke mid-turn", zap.String("session_id", sessionID), zap.Error(err))
				h.emitChunk(sessionID, accumulated, engineErrorMessage)
				break
			}
			h.emitChunk(sessionID, accumulated, frag)
		}
	default:
		h.emitChunk(sessionID, accumulated, h.generator.GenerateReply(ctx, prompt, mode))
	}

	// The download link is appended after generation output so the model
	// can never alter or omit it.
	if link != "" {
		h.emitChunk(sessionID, accumulated, link)
	}
	return nil
}

func (h *Handler) emitChunk(sessionID string, accumulated *strings.Builder, content string) {
	accumulated.WriteString(content)
	h.hub.Broadcast(sessionID, Event{Event: eventMessageChunk, Data: chunkPayload{Content: content}})
}

func (h *Handler) assemblePrompt(ctx context.Context, mode, profileID string, history []chatmodel.Message, question string) (string, error) {
	settings, err := h.store.GetSettings(ctx)
	if err != nil {
		return "", err
	}

	// A missing profile is not an error: the prompt falls back to the
	// no-background placeholder.
	var texts []string
	prof, err := h.resolveProfile(ctx, profileID)
	if err != nil && !errors.Is(err, store.ErrProfileNotFound) {
		return "", err
	}
	if err == nil {
		docs, err := h.store.ActiveDocuments(ctx, prof.ID)
		if err != nil {
			return "", err
		}
		texts = make([]string, 0, len(docs))
		for _, doc := range docs {
			texts = append(texts, doc.Content)
		}
	}

	return ai.BuildPrompt(ai.PromptInput{
		Mode:        mode,
		Personality: settings.PersonalityPrompt,
		Documents:   texts,
		History:     history,
		Question:    question,
	}), nil
}

func (h *Handler) resolveProfile(ctx context.Context, profileID string) (profile.Profile, error) {
	if profileID != "" {
		prof, err := h.store.GetProfile(ctx, profileID)
		if err == nil {
			return prof, nil
		}
		if !errors.Is(err, store.ErrProfileNotFound) {
			return profile.Profile{}, err
		}
	}
	return h.store.DefaultProfile(ctx)
}

func (h *Handler) resolveDownloadLink(ctx context.Context, text, profileID string) string {
	if !intent.WantsDownload(text) {
		return ""
	}
	prof, err := h.resolveProfile(ctx, profileID)
	if err != nil || prof.PrimaryDocumentID == "" {
		return ""
	}
	doc, err := h.store.GetDocument(ctx, prof.PrimaryDocumentID)
	if err != nil {
		return ""
	}
	return intent.LinkText(h.publicBaseURL + "/uploads/resumes/" + doc.Filename)
}

func (h *Handler) failTurn(cl *client, step string, err error) {
	h.logger.Error("turn aborted", zap.String("step", step), zap.Error(err))
	_ = cl.WriteJSON(Event{Event: eventError, Data: errorPayload{Message: genericErrorMessage}})
}

func (h *Handler) pingLoop(ctx context.Context, cl *client) {
	ticker := time.NewTicker(h.readWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cl.mu.Lock()
			err := cl.conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
