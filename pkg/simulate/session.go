// Package simulate walks a flow the way a deployed assistant would, choosing the next
// card by matching the user's message against the intent labels of the outgoing
// connections.
//
// Matching is a case-insensitive substring test: the first connection whose label
// appears in the message wins. Connections without a label match any message, but
// only when no labeled connection matched.
package simulate

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
)

var (
	ErrNoCards = errors.New("flow has no cards")
	ErrEnded   = errors.New("conversation has ended")
)

// Step records one exchange.
type Step struct {
	From    string `json:"from"`
	Input   string `json:"input"`
	To      string `json:"to,omitempty"`
	Intent  string `json:"intent,omitempty"`
	Matched bool   `json:"matched"`
}

// Result is the outcome of Reply.
type Result struct {
	Card     domain.Card `json:"card"`
	Intent   string      `json:"intent,omitempty"`
	Matched  bool        `json:"matched"`
	Terminal bool        `json:"terminal"`
}

// Session is a single simulated conversation. It is not safe for concurrent use.
type Session struct {
	flow    domain.FlowData
	cards   map[string]domain.Card
	current string
	history []Step
	logger  *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New starts a session at the first initial card, or at the first card when the flow
// has no entry point.
func New(flow domain.FlowData, opts ...Option) (*Session, error) {
	if len(flow.Cards) == 0 {
		return nil, ErrNoCards
	}
	s := &Session{
		flow:   flow,
		cards:  make(map[string]domain.Card, len(flow.Cards)),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, c := range flow.Cards {
		if _, ok := s.cards[c.ID]; !ok {
			s.cards[c.ID] = c
		}
	}

	s.current = flow.Cards[0].ID
	if entries := flow.EntryPoints(); len(entries) > 0 {
		s.current = entries[0].ID
	}
	return s, nil
}

// StartAt moves the session to a specific card and clears the history.
func (s *Session) StartAt(cardID string) error {
	if _, ok := s.cards[cardID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCardNotFound, cardID)
	}
	s.current = cardID
	s.history = nil
	return nil
}

// Current returns the card the conversation is on.
func (s *Session) Current() domain.Card {
	return s.cards[s.current]
}

// History returns the exchanges so far.
func (s *Session) History() []Step {
	return append([]Step(nil), s.history...)
}

// Ended reports whether the current card has no way forward.
func (s *Session) Ended() bool {
	return len(s.options()) == 0
}

// Options lists the intents available on the current card.
func (s *Session) Options() []string {
	var out []string
	for _, c := range s.options() {
		out = append(out, s.label(c))
	}
	return out
}

// Reply feeds a user message. When an intent matches, the session advances to its
// target; otherwise it stays on the current card and Matched is false.
func (s *Session) Reply(input string) (Result, error) {
	clean, err := SanitizeInput(input)
	if err != nil {
		return Result{}, err
	}
	options := s.options()
	if len(options) == 0 {
		return Result{}, ErrEnded
	}

	conn, ok := match(options, clean, s.label)
	step := Step{From: s.current, Input: clean, Matched: ok}
	if !ok {
		s.history = append(s.history, step)
		s.logger.Debug("no intent matched", "card", s.current, "input", clean)
		return Result{Card: s.Current(), Terminal: false}, nil
	}

	step.To = conn.End
	step.Intent = s.label(conn)
	s.history = append(s.history, step)
	s.current = conn.End
	s.logger.Debug("intent matched", "from", step.From, "to", step.To, "intent", step.Intent)

	return Result{
		Card:     s.Current(),
		Intent:   step.Intent,
		Matched:  true,
		Terminal: s.Ended(),
	}, nil
}

// options returns the outgoing connections of the current card whose target exists.
func (s *Session) options() []domain.Connection {
	var out []domain.Connection
	for _, c := range s.flow.Outgoing(s.current) {
		if _, ok := s.cards[c.End]; ok {
			out = append(out, c)
		}
	}
	return out
}

// label returns the connection label, falling back to the label of its source port.
func (s *Session) label(c domain.Connection) string {
	if c.SourcePortLabel != "" {
		return c.SourcePortLabel
	}
	if p, ok := s.cards[c.Start].Port(c.SourceHandle); ok && p.Label != "" {
		return p.Label
	}
	return ""
}

func match(options []domain.Connection, input string, label func(domain.Connection) string) (domain.Connection, bool) {
	text := strings.ToLower(input)
	var fallback *domain.Connection
	for i, c := range options {
		l := strings.ToLower(strings.TrimSpace(label(c)))
		if l == "" {
			if fallback == nil {
				fallback = &options[i]
			}
			continue
		}
		if strings.Contains(text, l) {
			return c, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return domain.Connection{}, false
}
