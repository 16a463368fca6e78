package web

import (
	"bytes"
	"encoding/json"
	"net/http"
)

type hero struct {
	Headline string
	Tagline  string
	CTALabel string
	CTAHref  string
}

type feature struct {
	Icon  string
	Title string
	Body  string
}

type priceTier struct {
	Name      string
	Price     string
	Period    string
	Perks     []string
	Highlight bool
}

var landingHero = hero{
	Headline: "Your days, worth remembering.",
	Tagline:  "Daybook is a private journal for words, photos and voice notes. Write in seconds, find anything later.",
	CTALabel: "Start writing",
	CTAHref:  "/journal",
}

var landingFeatures = []feature{
	{Icon: "✍️", Title: "Write fast", Body: "A title, a few lines and you are done. Entries are saved the moment you hit save."},
	{Icon: "📷", Title: "Photos inline", Body: "Attach as many photos as the day needs. They stay in the order you added them."},
	{Icon: "🎙️", Title: "Voice notes", Body: "Too tired to type? Attach a recording instead and read it back later."},
	{Icon: "🔎", Title: "Search everything", Body: "Find that one evening from last spring by any word you wrote."},
}

var landingPricing = []priceTier{
	{Name: "Free", Price: "$0", Period: "/month", Perks: []string{"Unlimited text entries", "10 photos a month"}},
	{Name: "Plus", Price: "$4", Period: "/month", Perks: []string{"Unlimited photos", "Voice notes", "Full-text search"}, Highlight: true},
	{Name: "Family", Price: "$9", Period: "/month", Perks: []string{"Everything in Plus", "Up to 5 journals"}},
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPage(w,
		map[string]any{
			"Hero":      landingHero,
			"Features":  landingFeatures,
			"Pricing":   landingPricing,
			"ActiveNav": "home",
		},
		"base.html", "pages/landing.html",
		"partials/hero.html", "partials/features.html", "partials/pricing.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "landing", "error", err)
	}
}

func (s *Server) handleLoading(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPartial(w, "loading", nil, "partials/loading.html"); err != nil {
		s.logger.Error("render partial failed", "partial", "loading", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v before writing the status line, so an encoding failure
// still produces a 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encode json response failed", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("write json response failed", "error", err)
	}
}
