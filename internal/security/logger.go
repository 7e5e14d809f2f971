package security

import "go.uber.org/zap"

// Logger records security-relevant events for audit. Nothing recorded here is
// ever surfaced to clients.
type Logger struct {
	log *zap.Logger
}

// NewLogger namespaces the given zap logger for security events.
func NewLogger(base *zap.Logger) *Logger {
	return &Logger{log: base.Named("security")}
}

// RejectedConnection records a connection refused during origin validation.
func (l *Logger) RejectedConnection(reason, remoteAddr string) {
	l.log.Warn("websocket connection rejected",
		zap.String("event", "websocket_rejected"),
		zap.String("reason", reason),
		zap.String("remote_addr", remoteAddr),
	)
}

// SessionCreated records a newly provisioned session.
func (l *Logger) SessionCreated(sessionID, remoteAddr string) {
	l.log.Info("websocket session created",
		zap.String("event", "websocket_connected"),
		zap.String("session_id", sessionID),
		zap.String("remote_addr", remoteAddr),
	)
}

// SuspiciousMessage records a message that matched the safety filter.
func (l *Logger) SuspiciousMessage(message, matchedPhrase, sessionID string) {
	l.log.Warn("potential prompt injection detected",
		zap.String("event", "suspicious_activity"),
		zap.String("message", message),
		zap.String("matched_phrase", matchedPhrase),
		zap.String("session_id", sessionID),
	)
}
