package testsupport

import (
	"context"
	"testing"

	"racenotes/internal/config"
	"racenotes/internal/notes"
)

// MustOpenStore opens a notes.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *notes.Store {
	t.Helper()

	store, err := notes.Open(cfg)
	if err != nil {
		t.Fatalf("notes.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewNote creates a note for tests using the provided store.
func NewNote(t testing.TB, store *notes.Store, body string) notes.Note {
	t.Helper()

	note, err := store.CreateNote(context.Background(), notes.NewNote{Body: body})
	if err != nil {
		t.Fatalf("store.CreateNote: %v", err)
	}
	return note
}
