package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/vbonduro/daybook/internal/domain"
)

const maxEntryJSONBytes = 1 << 20

func (s *Server) handleAPIListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.SearchEntries(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err, "list entries")
		return
	}
	if entries == nil {
		entries = []*domain.JournalEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAPIGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.service.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "get entry")
		return
	}
	if entry == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "entry not found"})
		return
	}
	s.writeEntry(w, http.StatusOK, entry)
}

// handleAPIImportEntry accepts an entry built by another client. The body
// is a single JournalEntry document; id and schemaVersion may be omitted.
func (s *Server) handleAPIImportEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEntryJSONBytes)

	entry, err := domain.DecodeEntry(r.Body)
	if err != nil {
		code := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		s.writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}

	entry, err = s.service.ImportEntry(r.Context(), entry)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.Error("import entry failed", "error", err, "request_id", requestIDFrom(r.Context()))
			s.writeJSON(w, code, map[string]string{"error": "failed to import entry"})
			return
		}
		s.writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/entries/%s", entry.ID))
	s.writeEntry(w, http.StatusCreated, entry)
}

func (s *Server) writeEntry(w http.ResponseWriter, status int, entry *domain.JournalEntry) {
	var buf bytes.Buffer
	if err := domain.EncodeEntry(&buf, entry); err != nil {
		s.logger.Error("encode entry failed", "entry_id", entry.ID, "error", err)
		http.Error(w, "failed to encode entry", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("write entry failed", "entry_id", entry.ID, "error", err)
	}
}
