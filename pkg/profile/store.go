// Package profile holds the assistant profile shared by the editor, the script
// generator and the transports.
//
// The Store is the single owner of the profile. Every Set persists the whole profile
// into the profile slot and notifies subscribers with an EventUpdated event.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/goccy/go-json"
)

// EventUpdated is the name of the notification sent after every Set.
const EventUpdated = "assistant-profile-updated"

// Event is delivered to subscribers.
type Event struct {
	Name    string                  `json:"name"`
	Profile domain.AssistantProfile `json:"profile"`
}

// Listener receives profile events.
type Listener func(Event)

// Store is a mutex-guarded, observable profile holder. The last writer wins.
type Store struct {
	mu        sync.RWMutex
	current   *domain.AssistantProfile
	slots     ports.SlotStore
	listeners map[int]Listener
	nextID    int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the clock used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store persisting into slots. slots may be nil for a purely
// in-memory store.
func NewStore(slots ports.SlotStore, opts ...Option) *Store {
	s := &Store{
		slots:     slots,
		listeners: make(map[int]Listener),
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted profile into memory. An empty slot is not an error.
func (s *Store) Load(ctx context.Context) error {
	p, err := s.Persisted(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	return nil
}

// Get returns the current profile, or the default profile when none was set.
func (s *Store) Get() domain.AssistantProfile {
	if p := s.Current(); p != nil {
		return *p
	}
	return domain.DefaultProfile()
}

// Current returns a copy of the current profile, or nil when none was set.
func (s *Store) Current() *domain.AssistantProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := s.current.Clone()
	return &p
}

// Persisted reads the profile slot. It returns nil without error when the slot is empty.
func (s *Store) Persisted(ctx context.Context) (*domain.AssistantProfile, error) {
	if s.slots == nil {
		return nil, nil
	}
	data, err := s.slots.Get(ctx, ports.SlotProfile)
	if errors.Is(err, domain.ErrSlotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p domain.AssistantProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

// Set replaces the profile, persists it and notifies subscribers. The in-memory value
// is updated even when persistence fails; the error is returned to the caller.
func (s *Store) Set(ctx context.Context, p domain.AssistantProfile) (domain.AssistantProfile, error) {
	p = p.Clone()
	p.UpdatedAt = s.now().UnixMilli()

	s.mu.Lock()
	stored := p.Clone()
	s.current = &stored
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	var persistErr error
	if s.slots != nil {
		data, err := json.Marshal(p)
		if err == nil {
			err = s.slots.Put(ctx, ports.SlotProfile, data)
		}
		if err != nil {
			s.logger.Error("failed to persist profile", "error", err)
			persistErr = fmt.Errorf("failed to persist profile: %w", err)
		}
	}

	ev := Event{Name: EventUpdated, Profile: p}
	for _, l := range listeners {
		l(ev)
	}
	s.logger.Debug("profile updated", "name", p.Name)
	return p, persistErr
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
