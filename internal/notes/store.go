// Package notes persists racing notes, their tags, and the media records
// pointing at uploaded objects. Storage is SQLite in WAL mode under the
// configured data directory.
package notes

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"racenotes/internal/config"
	"racenotes/internal/media"
	"racenotes/internal/textutil"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound indicates the requested note does not exist.
var ErrNotFound = errors.New("note not found")

// Store manages note persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the notes database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

const timeLayout = time.RFC3339Nano

// CreateNote stores a new note and returns it with identity and timestamps
// filled in. Hashtags found in the body are attached as tags.
func (s *Store) CreateNote(ctx context.Context, input NewNote) (Note, error) {
	if err := input.normalize(); err != nil {
		return Note{}, err
	}

	now := time.Now().UTC()
	note := Note{
		ID:          uuid.NewString(),
		Body:        input.Body,
		Category:    input.Category,
		Track:       input.Track,
		Series:      input.Series,
		Driver:      input.Driver,
		SessionType: input.SessionType,
		Shared:      input.Shared,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, body, category, track, series, driver, session_type, shared, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.Body, string(note.Category), note.Track, note.Series, note.Driver,
		string(note.SessionType), boolToInt(note.Shared),
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}

	for _, label := range textutil.ExtractHashtags(note.Body) {
		tag, err := s.GetOrCreateTag(ctx, label)
		if err != nil {
			return Note{}, err
		}
		if err := s.TagNote(ctx, note.ID, tag.ID); err != nil {
			return Note{}, err
		}
	}
	return note, nil
}

// GetNote loads one note with its tags and media records.
func (s *Store) GetNote(ctx context.Context, id string) (NoteDetails, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, body, category, track, series, driver, session_type, shared, created_at, updated_at
		FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return NoteDetails{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return NoteDetails{}, fmt.Errorf("load note: %w", err)
	}

	details := NoteDetails{Note: note}
	if details.Tags, err = s.noteTags(ctx, id); err != nil {
		return NoteDetails{}, err
	}
	if details.Media, err = s.noteMedia(ctx, id); err != nil {
		return NoteDetails{}, err
	}
	return details, nil
}

// AttachMedia records an uploaded object against a note.
func (s *Store) AttachMedia(ctx context.Context, record MediaRecord) (MediaRecord, error) {
	if strings.TrimSpace(record.NoteID) == "" {
		return MediaRecord{}, errors.New("attach media: note ID required")
	}
	if strings.TrimSpace(record.FileURL) == "" {
		return MediaRecord{}, errors.New("attach media: file URL required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media (id, note_id, file_url, kind, size_mb, filename, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.NoteID, record.FileURL, string(record.Kind),
		record.SizeMB, record.Filename, record.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return MediaRecord{}, fmt.Errorf("insert media record: %w", err)
	}
	return record, nil
}

// GetOrCreateTag returns the tag for a label, creating it on first use.
// Labels are normalized before lookup so variant spellings collapse.
func (s *Store) GetOrCreateTag(ctx context.Context, label string) (Tag, error) {
	normalized := textutil.NormalizeLabel(label)
	if normalized == "" {
		return Tag{}, errors.New("tag label cannot be empty")
	}

	var tag Tag
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, label, created_at FROM tags WHERE label = ?", normalized,
	).Scan(&tag.ID, &tag.Label, &createdAt)
	if err == nil {
		tag.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Tag{}, fmt.Errorf("lookup tag: %w", err)
	}

	tag = Tag{ID: uuid.NewString(), Label: normalized, CreatedAt: time.Now().UTC()}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tags (id, label, created_at) VALUES (?, ?, ?)",
		tag.ID, tag.Label, tag.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Tag{}, fmt.Errorf("insert tag: %w", err)
	}
	return tag, nil
}

// TagNote links a tag to a note. Linking twice is a no-op.
func (s *Store) TagNote(ctx context.Context, noteID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)", noteID, tagID)
	if err != nil {
		return fmt.Errorf("link tag: %w", err)
	}
	return nil
}

// ListNotes returns notes matching the filters, newest first, with tags and
// media joined in. The second return is the total match count before paging.
func (s *Store) ListNotes(ctx context.Context, filters Filters) ([]NoteDetails, int, error) {
	filters.normalize()
	where, args := buildWhere(filters)

	var total int
	countQuery := "SELECT COUNT(DISTINCT n.id) FROM notes n" + joinClause(filters) + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	query := `
		SELECT DISTINCT n.id, n.body, n.category, n.track, n.series, n.driver, n.session_type, n.shared, n.created_at, n.updated_at
		FROM notes n` + joinClause(filters) + where + `
		ORDER BY n.created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, filters.Limit, filters.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var results []NoteDetails
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan note: %w", err)
		}
		results = append(results, NoteDetails{Note: note})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notes: %w", err)
	}

	for i := range results {
		if results[i].Tags, err = s.noteTags(ctx, results[i].ID); err != nil {
			return nil, 0, err
		}
		if results[i].Media, err = s.noteMedia(ctx, results[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return results, total, nil
}

func joinClause(filters Filters) string {
	if filters.Tag == "" {
		return ""
	}
	return " JOIN note_tags nt ON nt.note_id = n.id JOIN tags t ON t.id = nt.tag_id"
}

func buildWhere(filters Filters) (string, []any) {
	var clauses []string
	var args []any
	if filters.Text != "" {
		clauses = append(clauses, "n.body LIKE ?")
		args = append(args, "%"+filters.Text+"%")
	}
	if filters.Track != "" {
		clauses = append(clauses, "n.track = ?")
		args = append(args, filters.Track)
	}
	if filters.Series != "" {
		clauses = append(clauses, "n.series = ?")
		args = append(args, filters.Series)
	}
	if filters.Driver != "" {
		clauses = append(clauses, "n.driver = ?")
		args = append(args, filters.Driver)
	}
	if filters.SessionType != "" {
		clauses = append(clauses, "n.session_type = ?")
		args = append(args, string(filters.SessionType))
	}
	if filters.Category != "" {
		clauses = append(clauses, "n.category = ?")
		args = append(args, string(filters.Category))
	}
	if filters.Tag != "" {
		clauses = append(clauses, "t.label = ?")
		args = append(args, textutil.NormalizeLabel(filters.Tag))
	}
	if filters.SharedOnly {
		clauses = append(clauses, "n.shared = 1")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (Note, error) {
	var note Note
	var category, sessionType, createdAt, updatedAt string
	var shared int
	err := row.Scan(&note.ID, &note.Body, &category, &note.Track, &note.Series,
		&note.Driver, &sessionType, &shared, &createdAt, &updatedAt)
	if err != nil {
		return Note{}, err
	}
	note.Category = Category(category)
	note.SessionType = SessionType(sessionType)
	note.Shared = shared != 0
	note.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	note.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return note, nil
}

func (s *Store) noteTags(ctx context.Context, noteID string) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.label, t.created_at
		FROM tags t JOIN note_tags nt ON nt.tag_id = t.id
		WHERE nt.note_id = ? ORDER BY t.label`, noteID)
	if err != nil {
		return nil, fmt.Errorf("load note tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var createdAt string
		if err := rows.Scan(&tag.ID, &tag.Label, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tag.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *Store) noteMedia(ctx context.Context, noteID string) ([]MediaRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_id, file_url, kind, size_mb, filename, created_at
		FROM media WHERE note_id = ? ORDER BY created_at`, noteID)
	if err != nil {
		return nil, fmt.Errorf("load note media: %w", err)
	}
	defer rows.Close()

	var records []MediaRecord
	for rows.Next() {
		var record MediaRecord
		var kind, createdAt string
		if err := rows.Scan(&record.ID, &record.NoteID, &record.FileURL, &kind,
			&record.SizeMB, &record.Filename, &createdAt); err != nil {
			return nil, fmt.Errorf("scan media record: %w", err)
		}
		record.Kind = media.Kind(kind)
		record.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
