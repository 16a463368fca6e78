package web

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/vbonduro/daybook/internal/db"
	"github.com/vbonduro/daybook/internal/domain"
	"github.com/vbonduro/daybook/internal/media"
	"github.com/vbonduro/daybook/internal/media/local"
	"github.com/vbonduro/daybook/internal/service"
	"github.com/vbonduro/daybook/internal/store"
	"github.com/vbonduro/daybook/internal/web/templates"
)

func newRenderServer(t *testing.T) *Server {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	stg, err := local.New(t.TempDir())
	require.NoError(t, err)

	svc := service.NewJournalService(store.NewEntryStore(d), stg, slog.Default())
	return NewServer(svc, templates.FS, slog.Default(), 1<<20)
}

func timeOf(t *testing.T, day string) time.Time {
	t.Helper()
	d, err := time.Parse(formDate, day)
	require.NoError(t, err)
	return d
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func TestLandingRendersSectionsInOrder(t *testing.T) {
	s := newRenderServer(t)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc := parseHTML(t, rec.Body.String())
	mains := findAll(doc, func(n *html.Node) bool { return n.Data == "main" })
	require.Len(t, mains, 1)

	children := elementChildren(mains[0])
	require.Len(t, children, 3)

	var order []string
	for _, c := range children {
		assert.Equal(t, "section", c.Data)
		order = append(order, attr(c, "data-section"))
	}
	assert.Equal(t, []string{"hero", "features", "pricing"}, order)
}

func TestLandingContent(t *testing.T) {
	s := newRenderServer(t)
	doc := parseHTML(t, get(t, s, "/").Body.String())

	features := findAll(doc, func(n *html.Node) bool { return hasClass(n, "feature") })
	assert.Len(t, features, len(landingFeatures))

	tiers := findAll(doc, func(n *html.Node) bool { return hasClass(n, "tier") })
	require.Len(t, tiers, len(landingPricing))
	for i, tier := range tiers {
		assert.Contains(t, textOf(tier), landingPricing[i].Name)
		assert.Equal(t, landingPricing[i].Highlight, hasClass(tier, "highlight"))
	}

	ctas := findAll(doc, func(n *html.Node) bool { return hasClass(n, "cta") })
	require.Len(t, ctas, 1)
	assert.Equal(t, "/journal", attr(ctas[0], "href"))
}

func TestLandingIndependentOfEntries(t *testing.T) {
	s := newRenderServer(t)
	before := get(t, s, "/").Body.String()

	_, err := s.service.CreateEntry(t.Context(), service.NewEntry{Title: "t", Content: "c", Date: timeOf(t, "2024-01-01")})
	require.NoError(t, err)

	assert.Equal(t, before, get(t, s, "/").Body.String())
}

func TestLoadingState(t *testing.T) {
	s := newRenderServer(t)

	rec := get(t, s, "/loading")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec.Body.String())

	spinners := findAll(doc, func(n *html.Node) bool { return hasClass(n, "spinner") })
	require.Len(t, spinners, 1)
	assert.Equal(t, "true", attr(spinners[0], "aria-hidden"))

	status := findAll(doc, func(n *html.Node) bool { return attr(n, "role") == "status" })
	require.Len(t, status, 1)
	assert.Equal(t, "Loading your journal...", textOf(status[0]))

	interactive := findAll(doc, func(n *html.Node) bool {
		switch n.Data {
		case "a", "button", "input", "select", "textarea", "form":
			return true
		}
		return false
	})
	assert.Empty(t, interactive)
}

func TestJournalPageShowsLoadingPlaceholder(t *testing.T) {
	s := newRenderServer(t)

	rec := get(t, s, "/journal")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec.Body.String())
	holders := findAll(doc, func(n *html.Node) bool { return attr(n, "id") == "entries" })
	require.Len(t, holders, 1)
	assert.Equal(t, "/journal/entries", attr(holders[0], "hx-get"))

	spinners := findAll(holders[0], func(n *html.Node) bool { return hasClass(n, "spinner") })
	assert.Len(t, spinners, 1)
	assert.Contains(t, textOf(holders[0]), "Loading your journal...")
}

func TestEntryListEmptyState(t *testing.T) {
	s := newRenderServer(t)

	rec := get(t, s, "/journal/entries")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec.Body.String())
	assert.Len(t, findAll(doc, func(n *html.Node) bool { return hasClass(n, "empty-state") }), 1)
	assert.Empty(t, findAll(doc, func(n *html.Node) bool { return hasClass(n, "entry-card") }))
}

func TestEntryListRendersCards(t *testing.T) {
	s := newRenderServer(t)
	ctx := t.Context()

	for i, d := range []string{"2024-01-01", "2024-01-03", "2024-01-02"} {
		_, err := s.service.CreateEntry(ctx, service.NewEntry{
			Title: fmt.Sprintf("Entry %d", i), Content: "body", Date: timeOf(t, d),
		})
		require.NoError(t, err)
	}

	doc := parseHTML(t, get(t, s, "/journal/entries").Body.String())
	cards := findAll(doc, func(n *html.Node) bool { return hasClass(n, "entry-card") })
	require.Len(t, cards, 3)
	assert.Contains(t, textOf(cards[0]), "Entry 1")
	assert.Contains(t, textOf(cards[1]), "Entry 2")
	assert.Contains(t, textOf(cards[2]), "Entry 0")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("wrap: %w", domain.ErrInvalidEntry), want: http.StatusBadRequest},
		{err: domain.ErrUnsupportedSchema, want: http.StatusBadRequest},
		{err: domain.ErrNotFound, want: http.StatusNotFound},
		{err: media.ErrNotFound, want: http.StatusNotFound},
		{err: domain.ErrDuplicateID, want: http.StatusConflict},
		{err: service.ErrUnsupportedMedia, want: http.StatusUnsupportedMediaType},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", excerpt("short   text", 20))
	assert.Equal(t, "one two…", excerpt("one two three", 9))
	assert.Equal(t, "héllo…", excerpt("héllo wörld", 7))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", formatDuration(0))
	assert.Equal(t, "0:05", formatDuration(4.6))
	assert.Equal(t, "2:05", formatDuration(125))
}

func TestRequestIDHeader(t *testing.T) {
	s := newRenderServer(t)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	s := newRenderServer(t)

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]float64{"duration": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "failed to encode response")
}
