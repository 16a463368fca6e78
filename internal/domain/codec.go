package domain

import (
	"encoding/json"
	"fmt"
	"io"
)

// EncodeEntry writes e as JSON. A zero SchemaVersion is stamped with the
// current version; e itself is not modified.
func EncodeEntry(w io.Writer, e *JournalEntry) error {
	out := *e
	if out.SchemaVersion == 0 {
		out.SchemaVersion = CurrentSchemaVersion
	}
	if len(out.Photos) == 0 {
		out.Photos = nil
	}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	return nil
}

// DecodeEntry reads a single JSON entry. Documents written before the version
// field existed are read as SchemaV1.
func DecodeEntry(r io.Reader) (*JournalEntry, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	e := &JournalEntry{}
	if err := dec.Decode(e); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	if err := upgrade(e); err != nil {
		return nil, err
	}
	return e, nil
}

func upgrade(e *JournalEntry) error {
	switch {
	case e.SchemaVersion == 0:
		e.SchemaVersion = SchemaV1
	case e.SchemaVersion > CurrentSchemaVersion || e.SchemaVersion < 0:
		return fmt.Errorf("%w: %d", ErrUnsupportedSchema, e.SchemaVersion)
	}
	if e.SchemaVersion < SchemaV2 && e.Audio != nil {
		return fmt.Errorf("%w: audio requires schema version %d", ErrUnsupportedSchema, SchemaV2)
	}
	if len(e.Photos) == 0 {
		e.Photos = nil
	}
	return nil
}
