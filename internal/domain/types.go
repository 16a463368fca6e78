package domain

import "time"

// Schema versions of a serialized JournalEntry.
const (
	// SchemaV1 covers title, content, date and photos.
	SchemaV1 = 1
	// SchemaV2 adds the audio attachment.
	SchemaV2 = 2

	CurrentSchemaVersion = SchemaV2
)

// JournalEntry is one user-authored journal record. It carries no behaviour;
// construction and validation belong to the callers (see Validate).
type JournalEntry struct {
	ID            string    `json:"id" validate:"required,excludesall=/\\?#"`
	Title         string    `json:"title" validate:"required"`
	Content       string    `json:"content" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	Photos        []string  `json:"photos,omitempty" validate:"omitempty,dive,required"`
	Audio         *Audio    `json:"audio,omitempty" validate:"omitempty"`
	SchemaVersion int       `json:"schemaVersion" validate:"schemaversion"`
}

// Audio is an optional voice recording attached to an entry.
type Audio struct {
	URL      string  `json:"url" validate:"required"`
	Duration float64 `json:"duration" validate:"finite,gte=0"`
}

// HasAttachments reports whether the entry references any photo or audio.
func (e *JournalEntry) HasAttachments() bool {
	return len(e.Photos) > 0 || e.Audio != nil
}
