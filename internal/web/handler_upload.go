package web

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vbonduro/daybook/internal/domain"
)

// Detected MIME types accepted per attachment kind, mapped to the type the
// attachment is stored under.
var (
	allowedImageTypes = map[string]string{
		"image/jpeg": "image/jpeg",
		"image/png":  "image/png",
		"image/gif":  "image/gif",
		"image/webp": "image/webp",
	}
	allowedAudioTypes = map[string]string{
		"audio/mpeg":      "audio/mpeg",
		"audio/wav":       "audio/wav",
		"audio/ogg":       "audio/ogg",
		"application/ogg": "audio/ogg",
		"audio/mp4":       "audio/mp4",
		"audio/x-m4a":     "audio/mp4",
		"audio/webm":      "audio/webm",
		"video/webm":      "audio/webm",
		"audio/flac":      "audio/flac",
	}
)

// sniffMIME detects the type of data from its content and reports the
// stored type if it is one of allowed.
func sniffMIME(data []byte, allowed map[string]string) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		for want, stored := range allowed {
			if m.Is(want) {
				return stored, true
			}
		}
	}
	return "", false
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, ok := s.readUpload(w, r, "photo")
	if !ok {
		return
	}

	mimeType, ok := sniffMIME(data, allowedImageTypes)
	if !ok {
		http.Error(w, "unsupported image format", http.StatusUnsupportedMediaType)
		return
	}

	entry, err := s.service.AttachPhoto(r.Context(), id, data, mimeType)
	if err != nil {
		s.fail(w, r, err, "attach photo")
		return
	}

	if err := s.renderPartial(w, "photo_strip", entry, "partials/photo_strip.html"); err != nil {
		s.logger.Error("render partial failed", "partial", "photo_strip", "error", err)
	}
}

func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, ok := s.readUpload(w, r, "audio")
	if !ok {
		return
	}

	duration := 0.0
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		var err error
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "duration must be a number of seconds", http.StatusBadRequest)
			return
		}
	}

	mimeType, ok := sniffMIME(data, allowedAudioTypes)
	if !ok {
		http.Error(w, "unsupported audio format", http.StatusUnsupportedMediaType)
		return
	}

	entry, err := s.service.AttachAudio(r.Context(), id, data, mimeType, duration)
	if err != nil {
		s.fail(w, r, err, "attach audio")
		return
	}

	if err := s.renderPartial(w, "audio_player", entry, "partials/audio_player.html"); err != nil {
		s.logger.Error("render partial failed", "partial", "audio_player", "error", err)
	}
}

func (s *Server) handleDeleteAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.RemoveAudio(r.Context(), id); err != nil {
		s.fail(w, r, err, "remove audio")
		return
	}

	if err := s.renderPartial(w, "audio_player", &domain.JournalEntry{ID: id}, "partials/audio_player.html"); err != nil {
		s.logger.Error("render partial failed", "partial", "audio_player", "error", err)
	}
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	reader, mimeType, err := s.service.OpenMedia(r.Context(), key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "media reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write media failed", "key", key, "error", err)
	}
}

// readUpload reads the multipart file in field, writing the error response
// itself when it reports false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return nil, false
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		http.Error(w, fmt.Sprintf("%s file required", field), http.StatusBadRequest)
		return nil, false
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		s.logger.Error("read upload failed", "field", field, "error", err)
		return nil, false
	}
	return data, true
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
