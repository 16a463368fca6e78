package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound          = errors.New("journal entry not found")
	ErrInvalidEntry      = errors.New("invalid journal entry")
	ErrDuplicateID       = errors.New("duplicate journal entry id")
	ErrUnsupportedSchema = errors.New("unsupported journal entry schema version")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	// Zero means not yet stamped; the encoder fills it in.
	_ = v.RegisterValidation("schemaversion", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 0 && n <= CurrentSchemaVersion
	})
	return v
}

// Validate checks e against the JournalEntry constraints. The returned error
// wraps ErrInvalidEntry and names every field that failed.
func Validate(e *JournalEntry) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidEntry)
	}
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fieldPath(fe), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(fields, ", "))
}

// ValidateCollection validates every entry and checks that ids are unique
// across the slice.
func ValidateCollection(entries []*JournalEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if err := Validate(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// fieldPath turns "JournalEntry.Audio.Duration" into "audio.duration".
func fieldPath(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}
