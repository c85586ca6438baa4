package notes_test

import (
	"context"
	"errors"
	"testing"

	"racenotes/internal/media"
	"racenotes/internal/notes"
	"racenotes/internal/services"
	"racenotes/internal/testsupport"
)

func newTestStore(t *testing.T) *notes.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func TestCreateNoteExtractsHashtags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	note, err := store.CreateNote(ctx, notes.NewNote{
		Body:        "Car was loose off turn 2 #handling #Bristol",
		Track:       "Bristol",
		SessionType: notes.SessionPractice,
	})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if note.ID == "" || note.CreatedAt.IsZero() {
		t.Fatalf("note identity not filled in: %+v", note)
	}
	if note.Category != notes.CategoryGeneral {
		t.Fatalf("category = %q, want default General", note.Category)
	}

	details, err := store.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(details.Tags) != 2 {
		t.Fatalf("got %d tags, want 2: %+v", len(details.Tags), details.Tags)
	}
	if details.Tags[0].Label != "bristol" || details.Tags[1].Label != "handling" {
		t.Fatalf("tags = %+v, want normalized bristol/handling", details.Tags)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateNote(ctx, notes.NewNote{Body: "   "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty body: error = %v, want ErrValidation", err)
	}
	if _, err := store.CreateNote(ctx, notes.NewNote{Body: "ok", Category: "Paddock Gossip"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad category: error = %v, want ErrValidation", err)
	}
	if _, err := store.CreateNote(ctx, notes.NewNote{Body: "ok", SessionType: "Warmup"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad session type: error = %v, want ErrValidation", err)
	}
}

func TestGetOrCreateTagCollapsesVariants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreateTag(ctx, "Short-Track")
	if err != nil {
		t.Fatalf("GetOrCreateTag: %v", err)
	}
	second, err := store.GetOrCreateTag(ctx, "  short-track ")
	if err != nil {
		t.Fatalf("GetOrCreateTag: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("variant labels created distinct tags: %q vs %q", first.ID, second.ID)
	}
	if first.Label != "short-track" {
		t.Fatalf("label = %q, want normalized", first.Label)
	}
}

func TestAttachMediaAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	note := testsupport.NewNote(t, store, "restart cam angle")
	record, err := store.AttachMedia(ctx, notes.MediaRecord{
		NoteID:   note.ID,
		FileURL:  "https://cdn.example/2026/08/abc_restart.mp4",
		Kind:     media.KindVideo,
		SizeMB:   12.5,
		Filename: "restart.mp4",
	})
	if err != nil {
		t.Fatalf("AttachMedia: %v", err)
	}
	if record.ID == "" {
		t.Fatal("media record ID not assigned")
	}

	details, err := store.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(details.Media) != 1 {
		t.Fatalf("got %d media records, want 1", len(details.Media))
	}
	if details.Media[0].Kind != media.KindVideo || details.Media[0].SizeMB != 12.5 {
		t.Fatalf("media record = %+v", details.Media[0])
	}
}

func TestAttachMediaRequiresNoteAndURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.AttachMedia(ctx, notes.MediaRecord{FileURL: "https://x"}); err == nil {
		t.Fatal("missing note ID must fail")
	}
	if _, err := store.AttachMedia(ctx, notes.MediaRecord{NoteID: "n"}); err == nil {
		t.Fatal("missing URL must fail")
	}
}

func TestListNotesFiltersAndPages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []notes.NewNote{
		{Body: "tight in 3 #setup", Track: "Bristol", SessionType: notes.SessionPractice},
		{Body: "qualifying trim", Track: "Daytona", SessionType: notes.SessionQualifying, Shared: true},
		{Body: "long run fade #setup", Track: "Bristol", SessionType: notes.SessionRace},
	}
	for _, n := range seed {
		if _, err := store.CreateNote(ctx, n); err != nil {
			t.Fatalf("CreateNote: %v", err)
		}
	}

	byTrack, total, err := store.ListNotes(ctx, notes.Filters{Track: "Bristol"})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(byTrack) != 2 {
		t.Fatalf("track filter: total=%d len=%d, want 2/2", total, len(byTrack))
	}

	byTag, total, err := store.ListNotes(ctx, notes.Filters{Tag: "SETUP"})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(byTag) != 2 {
		t.Fatalf("tag filter: total=%d len=%d, want 2/2", total, len(byTag))
	}

	shared, total, err := store.ListNotes(ctx, notes.Filters{SharedOnly: true})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 1 || shared[0].Track != "Daytona" {
		t.Fatalf("shared filter: total=%d notes=%+v", total, shared)
	}

	page, total, err := store.ListNotes(ctx, notes.Filters{Limit: 2})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("paging: total=%d len=%d, want 3/2", total, len(page))
	}

	text, _, err := store.ListNotes(ctx, notes.Filters{Text: "fade"})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(text) != 1 || text[0].Track != "Bristol" {
		t.Fatalf("text filter: %+v", text)
	}
}

func TestGetNoteMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetNote(context.Background(), "nope"); !errors.Is(err, notes.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
