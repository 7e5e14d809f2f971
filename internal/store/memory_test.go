package store

import (
	"context"
	"testing"

	"github.com/nwhitfield/foliochat/backend/internal/model/profile"
)

func TestDefaultProfileSelection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.DefaultProfile(ctx); err != ErrProfileNotFound {
		t.Fatalf("empty store: %v", err)
	}

	secondary := profile.Profile{Name: "secondary"}
	primary := profile.Profile{Name: "primary", IsDefault: true}
	if err := m.SaveProfile(ctx, &secondary); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveProfile(ctx, &primary); err != nil {
		t.Fatal(err)
	}

	got, err := m.DefaultProfile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != primary.ID {
		t.Fatalf("default profile: got %q, want %q", got.Name, primary.Name)
	}
}

func TestActiveDocumentsFiltersInactiveAndForeign(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	prof := profile.Profile{Name: "main", IsDefault: true}
	other := profile.Profile{Name: "other"}
	if err := m.SaveProfile(ctx, &prof); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveProfile(ctx, &other); err != nil {
		t.Fatal(err)
	}

	active := profile.Document{Filename: "cv.pdf", Content: "active text", Active: true}
	inactive := profile.Document{Filename: "old.pdf", Content: "stale", Active: false}
	foreign := profile.Document{Filename: "elsewhere.pdf", Content: "other", Active: true}
	if err := m.SaveDocument(ctx, &active, prof.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveDocument(ctx, &inactive, prof.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveDocument(ctx, &foreign, other.ID); err != nil {
		t.Fatal(err)
	}

	docs, err := m.ActiveDocuments(ctx, prof.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Filename != "cv.pdf" {
		t.Fatalf("got %+v", docs)
	}
}

func TestSaveDocumentAssignmentIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	prof := profile.Profile{Name: "main"}
	if err := m.SaveProfile(ctx, &prof); err != nil {
		t.Fatal(err)
	}

	doc := profile.Document{Filename: "cv.pdf", Active: true}
	if err := m.SaveDocument(ctx, &doc, prof.ID); err != nil {
		t.Fatal(err)
	}
	// Re-saving with the same profile must not duplicate the assignment.
	if err := m.SaveDocument(ctx, &doc, prof.ID); err != nil {
		t.Fatal(err)
	}

	docs, err := m.ActiveDocuments(ctx, prof.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one assignment, got %d", len(docs))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	settings, err := m.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settings.ChatbotName != "AI Assistant" {
		t.Fatalf("default name: %q", settings.ChatbotName)
	}

	settings.PersonalityPrompt = "You are terse."
	if err := m.SaveSettings(ctx, &settings); err != nil {
		t.Fatal(err)
	}

	reloaded, err := m.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PersonalityPrompt != "You are terse." {
		t.Fatalf("personality not persisted: %q", reloaded.PersonalityPrompt)
	}
}
