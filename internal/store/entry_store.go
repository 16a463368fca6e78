package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vbonduro/daybook/internal/domain"
)

// ErrNotFound is returned by mutations that match no entry.
var ErrNotFound = domain.ErrNotFound

type EntryStore struct {
	db *sql.DB
}

func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

// Create inserts e with its photos and audio in one transaction. An id that
// already exists yields domain.ErrDuplicateID.
func (s *EntryStore) Create(ctx context.Context, e *domain.JournalEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, title, content, entry_date, schema_version) VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Title, e.Content, formatDate(e.Date), e.SchemaVersion)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateID, e.ID)
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}

	for i, url := range e.Photos {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entry_photos (entry_id, position, url) VALUES (?, ?, ?)
		`, e.ID, i, url); err != nil {
			return fmt.Errorf("failed to create photo: %w", err)
		}
	}

	if e.Audio != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entry_audio (entry_id, url, duration_seconds) VALUES (?, ?, ?)
		`, e.ID, e.Audio.URL, e.Audio.Duration); err != nil {
			return fmt.Errorf("failed to create audio: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

func (s *EntryStore) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `
		SELECT id, title, content, entry_date, schema_version FROM journal_entries WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	if err := s.loadAttachments(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns every entry, newest date first.
func (s *EntryStore) List(ctx context.Context) ([]*domain.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, title, content, entry_date, schema_version FROM journal_entries
		ORDER BY entry_date DESC, id ASC
	`)
}

// Search matches query case-insensitively against title and content.
func (s *EntryStore) Search(ctx context.Context, query string) ([]*domain.JournalEntry, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.query(ctx, `
		SELECT id, title, content, entry_date, schema_version FROM journal_entries
		WHERE lower(title) LIKE ? ESCAPE '\' OR lower(content) LIKE ? ESCAPE '\'
		ORDER BY entry_date DESC, id ASC
	`, pattern, pattern)
}

// AddPhoto appends url after the entry's existing photos.
func (s *EntryStore) AddPhoto(ctx context.Context, id, url string) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO entry_photos (entry_id, position, url)
		SELECT id, (SELECT COALESCE(MAX(position), -1) + 1 FROM entry_photos WHERE entry_id = ?), ?
		FROM journal_entries WHERE id = ?
	`, id, url, id)
	if err != nil {
		return fmt.Errorf("failed to add photo: %w", err)
	}
	return requireRow(result)
}

// SetAudio replaces the entry's audio and bumps it to the schema version
// that introduced audio.
func (s *EntryStore) SetAudio(ctx context.Context, id string, audio *domain.Audio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE journal_entries SET schema_version = MAX(schema_version, ?) WHERE id = ?
	`, domain.SchemaV2, id)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entry_audio (entry_id, url, duration_seconds) VALUES (?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET url = excluded.url, duration_seconds = excluded.duration_seconds
	`, id, audio.URL, audio.Duration); err != nil {
		return fmt.Errorf("failed to set audio: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audio: %w", err)
	}
	return nil
}

func (s *EntryStore) RemoveAudio(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entry_audio WHERE entry_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove audio: %w", err)
	}
	return requireRow(result)
}

func (s *EntryStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireRow(result)
}

func (s *EntryStore) query(ctx context.Context, q string, args ...any) ([]*domain.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	// Attachments are loaded after rows is drained so the same connection is
	// not needed twice at once.
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close rows: %w", err)
	}

	for _, e := range entries {
		if err := s.loadAttachments(ctx, e); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *EntryStore) loadAttachments(ctx context.Context, e *domain.JournalEntry) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM entry_photos WHERE entry_id = ? ORDER BY position ASC
	`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return fmt.Errorf("failed to scan photo: %w", err)
		}
		e.Photos = append(e.Photos, url)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating photos: %w", err)
	}

	audio := &domain.Audio{}
	err = s.db.QueryRowContext(ctx, `
		SELECT url, duration_seconds FROM entry_audio WHERE entry_id = ?
	`, e.ID).Scan(&audio.URL, &audio.Duration)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to get audio: %w", err)
	default:
		e.Audio = audio
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.JournalEntry, error) {
	e := &domain.JournalEntry{}
	var date string
	if err := row.Scan(&e.ID, &e.Title, &e.Content, &date, &e.SchemaVersion); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return nil, fmt.Errorf("invalid entry date %q: %w", date, err)
	}
	e.Date = t
	return e, nil
}

// isUniqueViolation reports whether err is sqlite rejecting a duplicate
// primary or unique key.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(serr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// dateLayout is RFC 3339 with a fixed-width fraction, so that lexical order
// of the stored text matches chronological order. Dates are stored in UTC for
// the same reason; the instant survives but the original offset does not.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
