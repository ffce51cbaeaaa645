package cardflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/analysis"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/exchange"
	"github.com/aretw0/cardflow/pkg/graph"
	"github.com/aretw0/cardflow/pkg/layout"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/cardflow/pkg/profile"
	"github.com/aretw0/cardflow/pkg/script"
	"github.com/aretw0/cardflow/pkg/simulate"
	"github.com/google/uuid"
)

// Editor is the high-level entry point of the library.
// It owns the canvas (nodes and edges) and wires persistence, the profile store,
// layout and script generation around it. It is safe for concurrent use.
type Editor struct {
	mu       sync.RWMutex
	nodes    []domain.Node
	edges    []domain.Edge
	dangling []domain.Edge
	profile  *domain.AssistantProfile

	slots       ports.SlotStore
	profiles    *profile.Store
	archive     ports.ScriptArchive
	distributor *layout.Distributor
	assembler   *graph.Assembler
	generator   *script.Generator
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
	unsubscribe func()
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithStore sets the slot store used for the flow and the profile (default: in memory).
func WithStore(s ports.SlotStore) Option {
	return func(e *Editor) {
		e.slots = s
	}
}

// WithProfileStore shares an existing profile store instead of creating one on the slot store.
func WithProfileStore(p *profile.Store) Option {
	return func(e *Editor) {
		e.profiles = p
	}
}

// WithArchive keeps every generated script in the given archive.
func WithArchive(a ports.ScriptArchive) Option {
	return func(e *Editor) {
		e.archive = a
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithDistributor sets the layout distributor applied to loaded flows.
func WithDistributor(d *layout.Distributor) Option {
	return func(e *Editor) {
		e.distributor = d
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		e.now = now
	}
}

// New creates an Editor with an empty canvas.
func New(opts ...Option) *Editor {
	e := &Editor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.slots == nil {
		e.slots = memory.NewStore()
	}
	if e.profiles == nil {
		e.profiles = profile.NewStore(e.slots, profile.WithLogger(e.logger), profile.WithClock(e.now))
	}
	if e.distributor == nil {
		e.distributor = layout.New(layout.WithLogger(e.logger))
	}

	e.assembler = graph.NewAssembler(e.profiles, e.logger)
	e.generator = script.New(
		script.WithProfileSource(e.profiles),
		script.WithClock(e.now),
		script.WithLogger(e.logger),
	)
	e.unsubscribe = e.profiles.Subscribe(func(ev profile.Event) {
		p := ev.Profile.Clone()
		e.mu.Lock()
		e.profile = &p
		e.mu.Unlock()
	})
	return e
}

// Close detaches the editor from its profile store.
func (e *Editor) Close() error {
	e.unsubscribe()
	return nil
}

// Profiles returns the profile store backing the editor.
func (e *Editor) Profiles() *profile.Store {
	return e.profiles
}

// NewFlow clears the canvas.
func (e *Editor) NewFlow() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = nil
	e.edges = nil
	e.dangling = nil
}

// Load reads the saved flow and the profile from the slot store.
// Returns domain.ErrSlotNotFound (wrapped) when nothing was saved yet.
func (e *Editor) Load(ctx context.Context) error {
	if err := e.profiles.Load(ctx); err != nil {
		e.logger.Warn("failed to load profile", "error", err)
	}

	data, err := e.slots.Get(ctx, ports.SlotFlow)
	if err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}
	flow, err := exchange.Decode(data, exchange.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}

	e.apply(flow)
	e.emitFlow(ctx, e.hooks.OnFlowLoaded, domain.EventFlowLoaded, "slot", flow, nil)
	return nil
}

// Save snapshots the canvas and writes it to the flow slot.
func (e *Editor) Save(ctx context.Context) error {
	flow := e.Snapshot(ctx)
	data, err := exchange.Encode(flow, exchange.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to encode flow: %w", err)
	}
	if err := e.slots.Put(ctx, ports.SlotFlow, data); err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	e.logger.Debug("flow saved", "cards", len(flow.Cards), "connections", len(flow.Connections))
	e.emitFlow(ctx, e.hooks.OnFlowSaved, domain.EventFlowSaved, "slot", flow, nil)
	return nil
}

// Import replaces the canvas with a decoded flow. A flow carrying a profile also
// replaces the stored profile. On failure the canvas is left untouched.
func (e *Editor) Import(ctx context.Context, data []byte, format exchange.Format) error {
	flow, err := exchange.Decode(data, format)
	if err != nil {
		e.logger.Warn("import rejected", "error", err)
		e.emitFlow(ctx, e.hooks.OnImportFailed, domain.EventImportFailed, "import", domain.FlowData{}, err)
		return err
	}

	e.apply(flow)
	if flow.Profile != nil {
		if _, err := e.profiles.Set(ctx, *flow.Profile); err != nil {
			e.logger.Warn("imported profile was not persisted", "error", err)
		}
	}
	e.emitFlow(ctx, e.hooks.OnFlowLoaded, domain.EventFlowLoaded, "import", flow, nil)
	return nil
}

// Export encodes the current snapshot.
func (e *Editor) Export(ctx context.Context, format exchange.Format) ([]byte, error) {
	return exchange.Encode(e.Snapshot(ctx), format)
}

func (e *Editor) apply(flow domain.FlowData) {
	g := graph.ToGraph(flow, graph.WithDistributor(e.distributor), graph.WithLogger(e.logger))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = g.Nodes
	e.edges = g.Edges
	e.dangling = g.Dangling
	if flow.Profile != nil {
		p := flow.Profile.Clone()
		e.profile = &p
	}
}

// Snapshot assembles the canvas and the most recent profile into a flow.
func (e *Editor) Snapshot(ctx context.Context) domain.FlowData {
	g, inMemory := e.canvas()
	edges := append(g.Edges, g.Dangling...)
	return e.assembler.Snapshot(ctx, g.Nodes, edges, inMemory)
}

// Graph returns a copy of the canvas.
func (e *Editor) Graph() graph.Graph {
	g, _ := e.canvas()
	return g
}

func (e *Editor) canvas() (graph.Graph, *domain.AssistantProfile) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g := graph.Graph{
		Nodes:    make([]domain.Node, len(e.nodes)),
		Edges:    slices.Clone(e.edges),
		Dangling: slices.Clone(e.dangling),
	}
	for i, n := range e.nodes {
		n.Data = n.Data.Clone()
		g.Nodes[i] = n
	}
	if g.Edges == nil {
		g.Edges = []domain.Edge{}
	}
	var p *domain.AssistantProfile
	if e.profile != nil {
		c := e.profile.Clone()
		p = &c
	}
	return g, p
}

// AddCard places a card on the canvas. An empty ID is generated, an empty type
// defaults to a message card and a card without ports gets one.
func (e *Editor) AddCard(card domain.Card) (domain.Card, error) {
	card = card.Clone()
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.Type == "" {
		card.Type = domain.CardMessage
	}
	if len(card.OutputPorts) == 0 && card.Type != domain.CardEnd {
		card.OutputPorts = []domain.OutputPort{{ID: "o1"}}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexOf(card.ID) >= 0 {
		return domain.Card{}, fmt.Errorf("card %s: %w", card.ID, domain.ErrDuplicateCard)
	}
	e.nodes = append(e.nodes, domain.Node{ID: card.ID, Type: card.Type, Position: card.Position, Data: card})
	return card.Clone(), nil
}

// Card returns the card with the given ID.
func (e *Editor) Card(id string) (domain.Card, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.indexOf(id)
	if i < 0 {
		return domain.Card{}, fmt.Errorf("card %s: %w", id, domain.ErrCardNotFound)
	}
	return e.nodes[i].Card(), nil
}

// UpdateCard applies fn to a copy of the card and stores the result. The ID cannot change.
func (e *Editor) UpdateCard(id string, fn func(*domain.Card)) (domain.Card, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return domain.Card{}, fmt.Errorf("card %s: %w", id, domain.ErrCardNotFound)
	}
	card := e.nodes[i].Card()
	fn(&card)
	card.ID = id
	e.nodes[i] = domain.Node{ID: id, Type: card.Type, Position: card.Position, Data: card}
	return card.Clone(), nil
}

// RemoveCard deletes a card and every connection attached to it.
func (e *Editor) RemoveCard(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("card %s: %w", id, domain.ErrCardNotFound)
	}
	e.nodes = slices.Delete(e.nodes, i, i+1)
	e.edges = slices.DeleteFunc(e.edges, func(ed domain.Edge) bool {
		return ed.Source == id || ed.Target == id
	})
	return nil
}

// MoveCard sets the canvas position of a card.
func (e *Editor) MoveCard(id string, pos domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("card %s: %w", id, domain.ErrCardNotFound)
	}
	e.nodes[i].Position = pos
	return nil
}

// AddOutputPort appends a labeled port to a card.
func (e *Editor) AddOutputPort(cardID, label string) (domain.OutputPort, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(cardID)
	if i < 0 {
		return domain.OutputPort{}, fmt.Errorf("card %s: %w", cardID, domain.ErrCardNotFound)
	}
	card := &e.nodes[i].Data
	port := domain.OutputPort{ID: nextPortID(card.OutputPorts), Label: label}
	card.OutputPorts = append(slices.Clone(card.OutputPorts), port)
	return port, nil
}

// RemoveOutputPort deletes a port and the connection leaving through it.
// A card always keeps at least one port.
func (e *Editor) RemoveOutputPort(cardID, portID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(cardID)
	if i < 0 {
		return fmt.Errorf("card %s: %w", cardID, domain.ErrCardNotFound)
	}
	card := &e.nodes[i].Data
	if _, ok := card.Port(portID); !ok {
		return fmt.Errorf("port %s of card %s: %w", portID, cardID, domain.ErrPortNotFound)
	}
	if len(card.OutputPorts) <= 1 {
		return fmt.Errorf("card %s: %w", cardID, domain.ErrMinimumPorts)
	}
	card.OutputPorts = slices.DeleteFunc(slices.Clone(card.OutputPorts), func(p domain.OutputPort) bool {
		return p.ID == portID
	})
	e.edges = slices.DeleteFunc(e.edges, func(ed domain.Edge) bool {
		return ed.Source == cardID && ed.SourceHandle == portID
	})
	return nil
}

// Connect links source to target through the given port. An empty label takes the
// port label.
func (e *Editor) Connect(source, target, handle, label string) (domain.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	si := e.indexOf(source)
	if si < 0 {
		return domain.Edge{}, fmt.Errorf("source %s: %w", source, domain.ErrCardNotFound)
	}
	if e.indexOf(target) < 0 {
		return domain.Edge{}, fmt.Errorf("target %s: %w", target, domain.ErrCardNotFound)
	}
	if handle != "" {
		port, ok := e.nodes[si].Data.Port(handle)
		if !ok {
			return domain.Edge{}, fmt.Errorf("port %s of card %s: %w", handle, source, domain.ErrPortNotFound)
		}
		if label == "" {
			label = port.DisplayLabel()
		}
	}

	edge, err := graph.NewConnection(e.edges, source, target, handle, label)
	if err != nil {
		return domain.Edge{}, err
	}
	e.edges = append(e.edges, edge)
	return edge, nil
}

// SetConnectionType changes the polarity of a connection.
func (e *Editor) SetConnectionType(edgeID string, t domain.ConnectionType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.edges {
		if e.edges[i].ID == edgeID {
			e.edges[i].Data.Type = t
			return nil
		}
	}
	return fmt.Errorf("connection %s: %w", edgeID, domain.ErrConnectionNotFound)
}

// Disconnect removes a connection.
func (e *Editor) Disconnect(edgeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	match := func(ed domain.Edge) bool { return ed.ID == edgeID }
	n := len(e.edges) + len(e.dangling)
	e.edges = slices.DeleteFunc(e.edges, match)
	e.dangling = slices.DeleteFunc(e.dangling, match)
	if len(e.edges)+len(e.dangling) == n {
		return fmt.Errorf("connection %s: %w", edgeID, domain.ErrConnectionNotFound)
	}
	return nil
}

// Profile returns the assistant profile the next script would use.
func (e *Editor) Profile(ctx context.Context) domain.AssistantProfile {
	if p := e.Snapshot(ctx).Profile; p != nil {
		return *p
	}
	return e.profiles.Get()
}

// SetProfile replaces the assistant profile and persists it.
func (e *Editor) SetProfile(ctx context.Context, p domain.AssistantProfile) (domain.AssistantProfile, error) {
	return e.profiles.Set(ctx, p)
}

// GenerateScript renders the current snapshot. When an archive is configured the
// script is stored as well; an archive failure is returned along with the report.
func (e *Editor) GenerateScript(ctx context.Context) (script.Report, error) {
	start := time.Now()
	flow := e.Snapshot(ctx)
	report := e.generator.GenerateReport(flow)

	if e.hooks.OnScriptGenerated != nil {
		e.hooks.OnScriptGenerated(ctx, &domain.ScriptEvent{
			EventBase: domain.EventBase{Timestamp: report.GeneratedAt, Type: domain.EventScriptGenerated},
			Cards:     report.Stats.Cards,
			Visited:   report.Stats.Visited,
			Cycles:    report.Stats.Cycles,
			Dangling:  report.Stats.Dangling,
			Fallback:  report.Stats.Fallback,
			Duration:  time.Since(start),
		})
	}

	if e.archive == nil {
		return report, nil
	}
	err := e.archive.Archive(ctx, ports.ArchivedScript{
		Name:        exchange.FileName("script", "md", report.GeneratedAt),
		Text:        report.Text,
		GeneratedAt: report.GeneratedAt,
		Cards:       report.Stats.Cards,
		Connections: report.Stats.Connections,
	})
	if err != nil {
		return report, fmt.Errorf("failed to archive script: %w", err)
	}
	return report, nil
}

// Scripts lists the archived scripts, newest first.
// Returns domain.ErrNoArchive when the editor has no archive.
func (e *Editor) Scripts(ctx context.Context) ([]ports.ArchivedScript, error) {
	if e.archive == nil {
		return nil, domain.ErrNoArchive
	}
	return e.archive.Scripts(ctx)
}

// Analyze checks the current snapshot for structural problems.
func (e *Editor) Analyze(ctx context.Context) analysis.Report {
	return analysis.Analyze(e.Snapshot(ctx))
}

// Simulate starts a conversation over the current snapshot.
func (e *Editor) Simulate(ctx context.Context) (*simulate.Session, error) {
	return simulate.New(e.Snapshot(ctx), simulate.WithLogger(e.logger))
}

// Watch returns a channel that signals when the stored flow changes.
// Returns an error if the slot store does not support watching.
func (e *Editor) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.slots.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, errors.New("current store does not support watching")
}

func (e *Editor) indexOf(id string) int {
	return slices.IndexFunc(e.nodes, func(n domain.Node) bool { return n.ID == id })
}

func (e *Editor) emitFlow(ctx context.Context, hook func(context.Context, *domain.FlowEvent), t domain.EventType, source string, flow domain.FlowData, err error) {
	if hook == nil {
		return
	}
	ev := &domain.FlowEvent{
		EventBase:   domain.EventBase{Timestamp: e.now(), Type: t},
		Source:      source,
		Cards:       len(flow.Cards),
		Connections: len(flow.Connections),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	hook(ctx, ev)
}

func nextPortID(existing []domain.OutputPort) string {
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.ID] = true
	}
	for n := len(existing) + 1; ; n++ {
		id := "o" + strconv.Itoa(n)
		if !taken[id] {
			return id
		}
	}
}
