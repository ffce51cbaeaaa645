package script

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
)

// ProfileSource yields the current assistant profile.
type ProfileSource interface {
	Get() domain.AssistantProfile
}

// Stats summarizes one generation.
type Stats struct {
	Cards       int  `json:"cards"`
	Connections int  `json:"connections"`
	EntryPoints int  `json:"entryPoints"`
	Visited     int  `json:"visited"`
	Cycles      int  `json:"cycles"`
	Dangling    int  `json:"dangling"`
	Terminals   int  `json:"terminals"`
	Fallback    bool `json:"fallback"`
}

// Report is a generated script and its statistics.
type Report struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generatedAt"`
	Stats       Stats     `json:"stats"`
}

// Generator renders flows into scripts.
type Generator struct {
	profiles ProfileSource
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithProfileSource sets the profile used when the flow carries none.
func WithProfileSource(src ProfileSource) Option {
	return func(g *Generator) {
		g.profiles = src
	}
}

// WithClock sets the clock used for the footer timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the flow into a script.
func (g *Generator) Generate(flow domain.FlowData) string {
	return g.GenerateReport(flow).Text
}

// GenerateReport renders the flow and reports what the walk encountered.
func (g *Generator) GenerateReport(flow domain.FlowData) Report {
	w := &writer{}
	profile := g.resolveProfile(flow)
	stats := Stats{Cards: len(flow.Cards), Connections: len(flow.Connections)}

	writeProfile(w, profile)
	writeRules(w, profile.EffectiveScriptGuidelines())

	w.line("# Conversation flow")
	w.blank()

	entries := flow.EntryPoints()
	switch {
	case len(flow.Cards) == 0:
		w.line("> Warning: the flow has no cards.")
		w.blank()
	case len(entries) == 0:
		first := flow.Cards[0]
		stats.Fallback = true
		w.linef("> Warning: no card of type '%s' was found. Using '%s' (id: %s) as the entry point.", domain.CardInitial, first.Title, first.ID)
		w.blank()
		entries = []domain.Card{first}
		g.logger.Warn("flow has no entry point", "fallback", first.ID)
	}
	stats.EntryPoints = len(entries)

	t := newTraversal(flow, w, &stats)
	for i, entry := range entries {
		w.linef("## Entry point %d: %s (id: %s)", i+1, entry.Title, entry.ID)
		w.blank()
		t.walk(entry.ID, fmt.Sprint(i+1))
	}

	generatedAt := g.now()
	w.line("---")
	w.linef("Generated at %s", generatedAt.Format(time.RFC3339))
	w.linef("Total cards: %d", stats.Cards)
	w.linef("Total connections: %d", stats.Connections)

	g.logger.Debug("script generated",
		"cards", stats.Cards,
		"visited", stats.Visited,
		"cycles", stats.Cycles,
		"dangling", stats.Dangling,
	)

	return Report{Text: w.String(), GeneratedAt: generatedAt, Stats: stats}
}

func (g *Generator) resolveProfile(flow domain.FlowData) domain.AssistantProfile {
	if flow.Profile != nil {
		return *flow.Profile
	}
	if g.profiles != nil {
		return g.profiles.Get()
	}
	return domain.DefaultProfile()
}

func writeProfile(w *writer, p domain.AssistantProfile) {
	w.line("# Assistant profile")
	w.blank()
	w.linef("- **Name:** %s", p.Name)
	if p.Profession != "" {
		w.linef("- **Profession:** %s", p.Profession)
	}
	if p.Company != "" {
		w.linef("- **Company:** %s", p.Company)
	}
	if p.Contacts != "" {
		w.linef("- **Contacts:** %s", oneLine(p.Contacts))
	}
	w.blank()

	var bullets []string
	for _, l := range strings.Split(p.Guidelines, "\n") {
		if l = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "-*•")); l != "" {
			bullets = append(bullets, l)
		}
	}
	if len(bullets) == 0 {
		return
	}
	w.line("## Guidelines")
	w.blank()
	for _, b := range bullets {
		w.linef("- %s", b)
	}
	w.blank()
}

func writeRules(w *writer, rules []string) {
	w.line("# How to interpret this flow")
	w.blank()
	for i, r := range rules {
		w.linef("%d. %s", i+1, r)
	}
	w.blank()
}

// Generate renders a flow with a default Generator.
func Generate(flow domain.FlowData) string {
	return New().Generate(flow)
}
