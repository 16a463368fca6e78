package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/daybook/internal/domain"
	"github.com/vbonduro/daybook/internal/media"
)

// MediaURLPrefix is the URL path under which stored attachments are served.
const MediaURLPrefix = "/media/"

var ErrUnsupportedMedia = errors.New("unsupported media type")

// entryRepository is the subset of store.EntryStore that JournalService requires.
type entryRepository interface {
	Create(ctx context.Context, e *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	List(ctx context.Context) ([]*domain.JournalEntry, error)
	Search(ctx context.Context, query string) ([]*domain.JournalEntry, error)
	AddPhoto(ctx context.Context, id, url string) error
	SetAudio(ctx context.Context, id string, audio *domain.Audio) error
	RemoveAudio(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type JournalService struct {
	entries  entryRepository
	mediaStg media.Store
	logger   *slog.Logger
}

func NewJournalService(entries entryRepository, mediaStg media.Store, logger *slog.Logger) *JournalService {
	return &JournalService{
		entries:  entries,
		mediaStg: mediaStg,
		logger:   logger,
	}
}

// NewEntry holds the user-supplied fields of an entry being written.
type NewEntry struct {
	Title   string
	Content string
	Date    time.Time
}

func (s *JournalService) CreateEntry(ctx context.Context, in NewEntry) (*domain.JournalEntry, error) {
	e := &domain.JournalEntry{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		Date:          in.Date,
		SchemaVersion: domain.CurrentSchemaVersion,
	}
	if err := domain.Validate(e); err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("entry created", "entry_id", e.ID)
	return e, nil
}

// ImportEntry stores an entry built elsewhere. A missing id is generated;
// an id already in use yields domain.ErrDuplicateID.
func (s *JournalService) ImportEntry(ctx context.Context, e *domain.JournalEntry) (*domain.JournalEntry, error) {
	if e == nil {
		return nil, domain.Validate(nil)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = domain.CurrentSchemaVersion
	}
	if err := domain.Validate(e); err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("entry imported", "entry_id", e.ID, "photos", len(e.Photos), "audio", e.Audio != nil)
	return e, nil
}

func (s *JournalService) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return s.entries.GetByID(ctx, id)
}

func (s *JournalService) ListEntries(ctx context.Context) ([]*domain.JournalEntry, error) {
	return s.entries.List(ctx)
}

func (s *JournalService) SearchEntries(ctx context.Context, query string) ([]*domain.JournalEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.entries.List(ctx)
	}
	return s.entries.Search(ctx, query)
}

// DeleteEntry removes the entry and then any attachments stored for it.
// Attachment cleanup failures are logged, not returned.
func (s *JournalService) DeleteEntry(ctx context.Context, id string) error {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	if e == nil {
		return domain.ErrNotFound
	}

	if err := s.entries.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	for _, url := range e.Photos {
		s.deleteOwnedMedia(ctx, url)
	}
	if e.Audio != nil {
		s.deleteOwnedMedia(ctx, e.Audio.URL)
	}
	s.logger.Info("entry deleted", "entry_id", id)
	return nil
}

// AttachPhoto stores an image and appends its URL to the entry's photos.
func (s *JournalService) AttachPhoto(ctx context.Context, id string, data []byte, mimeType string) (*domain.JournalEntry, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
	if err := s.requireEntry(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.saveMedia(ctx, id, mimeType, data)
	if err != nil {
		return nil, err
	}
	if err := s.entries.AddPhoto(ctx, id, url); err != nil {
		s.deleteOwnedMedia(ctx, url)
		return nil, fmt.Errorf("failed to record photo: %w", err)
	}
	s.logger.Info("photo attached", "entry_id", id, "mime_type", mimeType, "bytes", len(data))
	return s.entries.GetByID(ctx, id)
}

// AttachAudio stores a recording and replaces any audio the entry had.
func (s *JournalService) AttachAudio(ctx context.Context, id string, data []byte, mimeType string, duration float64) (*domain.JournalEntry, error) {
	if !strings.HasPrefix(mimeType, "audio/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: audio.duration must be a finite number", domain.ErrInvalidEntry)
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: audio.duration must not be negative", domain.ErrInvalidEntry)
	}

	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}

	url, err := s.saveMedia(ctx, id, mimeType, data)
	if err != nil {
		return nil, err
	}
	if err := s.entries.SetAudio(ctx, id, &domain.Audio{URL: url, Duration: duration}); err != nil {
		s.deleteOwnedMedia(ctx, url)
		return nil, fmt.Errorf("failed to record audio: %w", err)
	}
	if e.Audio != nil {
		s.deleteOwnedMedia(ctx, e.Audio.URL)
	}
	s.logger.Info("audio attached", "entry_id", id, "mime_type", mimeType, "duration", duration)
	return s.entries.GetByID(ctx, id)
}

func (s *JournalService) RemoveAudio(ctx context.Context, id string) error {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	if e == nil || e.Audio == nil {
		return domain.ErrNotFound
	}
	if err := s.entries.RemoveAudio(ctx, id); err != nil {
		return fmt.Errorf("failed to remove audio: %w", err)
	}
	s.deleteOwnedMedia(ctx, e.Audio.URL)
	return nil
}

// OpenMedia returns a reader over a stored attachment and its content type.
func (s *JournalService) OpenMedia(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.mediaStg.Get(ctx, key)
}

func (s *JournalService) requireEntry(ctx context.Context, id string) error {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	if e == nil {
		return domain.ErrNotFound
	}
	return nil
}

func (s *JournalService) saveMedia(ctx context.Context, id, mimeType string, data []byte) (string, error) {
	key, err := s.mediaStg.Save(ctx, "entry_"+id, mimeType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to save media: %w", err)
	}
	s.logger.Debug("media saved", "entry_id", id, "key", key)
	return MediaURLPrefix + key, nil
}

// deleteOwnedMedia removes the stored file behind url. URLs that point
// outside the media store belong to someone else and are left alone.
func (s *JournalService) deleteOwnedMedia(ctx context.Context, url string) {
	key, ok := strings.CutPrefix(url, MediaURLPrefix)
	if !ok {
		return
	}
	if err := s.mediaStg.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete media file", "key", key, "error", err)
	}
}
