package notes

import (
	"strings"
	"time"

	"racenotes/internal/media"
	"racenotes/internal/services"
)

// Category buckets a note for coarse filtering.
type Category string

const (
	CategoryGeneral       Category = "General"
	CategoryTrackSpecific Category = "Track Specific"
	CategoryStrategy      Category = "Strategy"
	CategoryOther         Category = "Other"
)

// SessionType identifies the on-track session a note refers to.
type SessionType string

const (
	SessionPractice   SessionType = "Practice"
	SessionQualifying SessionType = "Qualifying"
	SessionRace       SessionType = "Race"
)

var validCategories = map[Category]struct{}{
	CategoryGeneral: {}, CategoryTrackSpecific: {}, CategoryStrategy: {}, CategoryOther: {},
}

var validSessionTypes = map[SessionType]struct{}{
	SessionPractice: {}, SessionQualifying: {}, SessionRace: {},
}

// Note is one stored racing note.
type Note struct {
	ID          string
	Body        string
	Category    Category
	Track       string
	Series      string
	Driver      string
	SessionType SessionType
	Shared      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MediaRecord links a stored object to a note.
type MediaRecord struct {
	ID        string
	NoteID    string
	FileURL   string
	Kind      media.Kind
	SizeMB    float64
	Filename  string
	CreatedAt time.Time
}

// Tag is a normalized label attached to notes.
type Tag struct {
	ID        string
	Label     string
	CreatedAt time.Time
}

// NoteDetails is a note joined with its tags and media.
type NoteDetails struct {
	Note
	Tags  []Tag
	Media []MediaRecord
}

// NewNote validates the fields stored with a new note. Body is required;
// empty category and session type take defaults.
type NewNote struct {
	Body        string
	Category    Category
	Track       string
	Series      string
	Driver      string
	SessionType SessionType
	Shared      bool
}

func (n *NewNote) normalize() error {
	n.Body = strings.TrimSpace(n.Body)
	if n.Body == "" {
		return services.Wrap(services.ErrValidation, "notes", "create", "note body cannot be empty", nil)
	}
	if len(n.Body) > 5000 {
		return services.Wrap(services.ErrValidation, "notes", "create", "note body exceeds 5000 characters", nil)
	}
	if n.Category == "" {
		n.Category = CategoryGeneral
	}
	if _, ok := validCategories[n.Category]; !ok {
		return services.Wrap(services.ErrValidation, "notes", "create", "unknown category: "+string(n.Category), nil)
	}
	if n.SessionType != "" {
		if _, ok := validSessionTypes[n.SessionType]; !ok {
			return services.Wrap(services.ErrValidation, "notes", "create", "unknown session type: "+string(n.SessionType), nil)
		}
	}
	n.Track = strings.TrimSpace(n.Track)
	n.Series = strings.TrimSpace(n.Series)
	n.Driver = strings.TrimSpace(n.Driver)
	return nil
}

// Filters narrows and pages a note listing. Zero values match everything.
type Filters struct {
	Text        string
	Track       string
	Series      string
	Driver      string
	SessionType SessionType
	Category    Category
	Tag         string
	SharedOnly  bool
	Limit       int
	Offset      int
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (f *Filters) normalize() {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
