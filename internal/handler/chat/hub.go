package chat

import "sync"

// sender is one attached connection. Implementations must be safe for
// concurrent writes.
type sender interface {
	WriteJSON(v any) error
}

// Hub maps session identifiers to the set of connections currently viewing
// that session, so events for one logical session reach every attached
// client even across multiple physical connections.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	// turn serializes message handling per session: a second inbound
	// message waits until the previous turn finished.
	turn  sync.Mutex
	conns map[sender]struct{}
	// refs counts members plus in-flight turns. The room is reaped only at
	// zero, so a turn started before the last member disconnected keeps
	// the room (and its turn mutex) alive until the turn finishes, and a
	// turn on a session nobody joined leaves nothing behind.
	refs int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// retainLocked returns the session's room, creating it when absent, and takes
// one reference. Callers must hold h.mu.
func (h *Hub) retainLocked(sessionID string) *room {
	rm, ok := h.rooms[sessionID]
	if !ok {
		rm = &room{conns: make(map[sender]struct{})}
		h.rooms[sessionID] = rm
	}
	rm.refs++
	return rm
}

func (h *Hub) release(sessionID string, rm *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm.refs--
	if rm.refs == 0 {
		delete(h.rooms, sessionID)
	}
}

// Join attaches a connection to a session's room.
func (h *Hub) Join(sessionID string, conn sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm := h.retainLocked(sessionID)
	rm.conns[conn] = struct{}{}
}

// Leave detaches a connection, dropping its reference. A room with no members
// survives as long as a turn still holds it.
func (h *Hub) Leave(sessionID string, conn sender) {
	h.mu.Lock()
	rm, ok := h.rooms[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := rm.conns[conn]; !member {
		h.mu.Unlock()
		return
	}
	delete(rm.conns, conn)
	h.mu.Unlock()

	h.release(sessionID, rm)
}

// Broadcast delivers an event to every connection in the session's room, in
// no particular connection order; per-connection frame order is preserved.
func (h *Hub) Broadcast(sessionID string, event Event) {
	h.mu.Lock()
	conns := make([]sender, 0, 4)
	if rm, ok := h.rooms[sessionID]; ok {
		for conn := range rm.conns {
			conns = append(conns, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range conns {
		// A failed write means the peer is going away; its read loop
		// will detach it.
		_ = conn.WriteJSON(event)
	}
}

// LockTurn acquires the session's turn lock and returns the release
// function, which must be called exactly once. The turn holds a room
// reference, so the mutex stays valid even if every member disconnects
// mid-turn.
func (h *Hub) LockTurn(sessionID string) func() {
	h.mu.Lock()
	rm := h.retainLocked(sessionID)
	h.mu.Unlock()

	rm.turn.Lock()
	return func() {
		rm.turn.Unlock()
		h.release(sessionID, rm)
	}
}
