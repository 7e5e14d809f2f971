package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	model "github.com/nwhitfield/foliochat/backend/internal/model/chat"
	chat "github.com/nwhitfield/foliochat/backend/internal/service/chat"
	"github.com/nwhitfield/foliochat/backend/internal/store"
)

func newService() (*chat.Service, context.Context) {
	return chat.NewService(store.NewMemory()), context.Background()
}

func runTurn(t *testing.T, svc *chat.Service, ctx context.Context, sessionID, question, answer string) {
	t.Helper()
	if _, err := svc.RecordUserMessage(ctx, sessionID, question); err != nil {
		t.Fatalf("RecordUserMessage err: %v", err)
	}
	if err := svc.RecordAssistantMessage(ctx, sessionID, answer, time.Now().UTC(), question); err != nil {
		t.Fatalf("RecordAssistantMessage err: %v", err)
	}
}

func TestResolveSessionGeneratesIdentifier(t *testing.T) {
	svc, ctx := newService()

	session, err := svc.ResolveSession(ctx, "", chat.SessionMeta{IPAddress: "127.0.0.1"})
	if err != nil {
		t.Fatalf("ResolveSession err: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected generated session identifier")
	}

	again, err := svc.ResolveSession(ctx, session.ID, chat.SessionMeta{})
	if err != nil {
		t.Fatalf("ResolveSession err: %v", err)
	}
	if again.ID != session.ID {
		t.Fatalf("identifier changed on resume: got %s want %s", again.ID, session.ID)
	}
}

func TestTurnsAlternateAndCount(t *testing.T) {
	svc, ctx := newService()
	session, _ := svc.ResolveSession(ctx, "", chat.SessionMeta{})

	turns := 3
	for i := 0; i < turns; i++ {
		runTurn(t, svc, ctx, session.ID, "question", "answer")
	}

	updated, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if updated.MessageCount != 2*turns {
		t.Fatalf("message count: got %d want %d", updated.MessageCount, 2*turns)
	}

	_, messages, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(messages) != 2*turns {
		t.Fatalf("persisted messages: got %d want %d", len(messages), 2*turns)
	}
	for i, msg := range messages {
		want := model.RoleUser
		if i%2 == 1 {
			want = model.RoleAssistant
		}
		if msg.Role != want {
			t.Fatalf("message %d role: got %s want %s", i, msg.Role, want)
		}
		if i > 0 && messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Fatalf("message %d out of order", i)
		}
	}
}

func TestTitleSetOnceFromFirstMessage(t *testing.T) {
	svc, ctx := newService()
	session, _ := svc.ResolveSession(ctx, "", chat.SessionMeta{})

	runTurn(t, svc, ctx, session.ID, "What is your experience with databases?", "plenty")
	runTurn(t, svc, ctx, session.ID, "a different question entirely", "sure")

	updated, _ := svc.GetSession(ctx, session.ID)
	if updated.Title != "What is your experience with databases?" {
		t.Fatalf("unexpected title: %q", updated.Title)
	}
}

func TestTitleTruncation(t *testing.T) {
	long := strings.Repeat("x", 80)
	title := chat.DeriveTitle(long)
	if len([]rune(title)) != 53 {
		t.Fatalf("truncated title length: got %d want 53", len([]rune(title)))
	}
	if !strings.HasSuffix(title, "...") {
		t.Fatal("truncated title must end with ellipsis")
	}

	short := "short question"
	if chat.DeriveTitle(short) != short {
		t.Fatal("short titles must not be modified")
	}
}

func TestRecentHistoryChronologicalAndCapped(t *testing.T) {
	svc, ctx := newService()
	session, _ := svc.ResolveSession(ctx, "", chat.SessionMeta{})

	for i := 0; i < 8; i++ {
		runTurn(t, svc, ctx, session.ID, "q", "a")
	}

	history, err := svc.RecentHistory(ctx, session.ID)
	if err != nil {
		t.Fatalf("RecentHistory err: %v", err)
	}
	if len(history) != 10 {
		t.Fatalf("history length: got %d want 10", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Fatalf("history entry %d out of order", i)
		}
	}
}

func TestListHistoryRequiresIdentifier(t *testing.T) {
	svc, ctx := newService()
	sessions, err := svc.ListHistory(ctx, "")
	if err != nil {
		t.Fatalf("ListHistory err: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatal("missing identifier must yield an empty list")
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	svc, ctx := newService()
	session, _ := svc.ResolveSession(ctx, "", chat.SessionMeta{})
	runTurn(t, svc, ctx, session.ID, "q", "a")

	if err := svc.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); err != chat.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, _, err := svc.Transcript(ctx, session.ID); err != chat.ErrSessionNotFound {
		t.Fatalf("expected cascade delete of messages, got %v", err)
	}
}
