package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/daybook/internal/domain"
	"github.com/vbonduro/daybook/internal/media"
	"github.com/vbonduro/daybook/internal/service"
)

const (
	maxTitleLen = 200
	formDate    = "2006-01-02"
)

var entryListFiles = []string{"partials/entry_list.html", "partials/entry_card.html"}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPage(w,
		map[string]any{
			"ActiveNav":   "journal",
			"Today":       time.Now().Format(formDate),
			"MaxTitleLen": maxTitleLen,
		},
		"base.html", "pages/journal.html", "partials/loading.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "journal", "error", err)
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.SearchEntries(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err, "list entries")
		return
	}

	if err := s.renderPartial(w, "entry_list", entries, entryListFiles...); err != nil {
		s.logger.Error("render partial failed", "partial", "entry_list", "error", err)
	}
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	if len(title) > maxTitleLen {
		http.Error(w, "title too long", http.StatusBadRequest)
		return
	}

	var date time.Time
	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		var err error
		date, err = time.Parse(formDate, raw)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	entry, err := s.service.CreateEntry(r.Context(), service.NewEntry{
		Title:   title,
		Content: r.FormValue("content"),
		Date:    date,
	})
	if err != nil {
		s.fail(w, r, err, "create entry")
		return
	}

	w.Header().Set("HX-Trigger", "entry-created")
	if err := s.renderPartial(w, "entry_card", entry, "partials/entry_card.html"); err != nil {
		s.logger.Error("render partial failed", "partial", "entry_card", "error", err)
	}
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.service.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "get entry")
		return
	}
	if entry == nil {
		http.NotFound(w, r)
		return
	}

	if err := s.renderPage(w,
		map[string]any{"Entry": entry, "ActiveNav": "journal"},
		"base.html", "pages/entry_detail.html", "partials/photo_strip.html", "partials/audio_player.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "entry_detail", "error", err)
	}
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "delete entry")
		return
	}

	w.Header().Set("HX-Redirect", "/journal")
	w.WriteHeader(http.StatusOK)
}

// statusFor maps service and domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidEntry), errors.Is(err, domain.ErrUnsupportedSchema):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// fail writes an error response for err. Client errors echo the message;
// server errors are logged and answered generically.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err, "request_id", requestIDFrom(r.Context()))
		http.Error(w, "failed to "+op, code)
		return
	}
	http.Error(w, err.Error(), code)
}
