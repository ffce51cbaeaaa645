// Package graph converts between stored flows and the node/edge collection rendered
// on the canvas.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/layout"
	"github.com/google/uuid"
)

// Graph is the renderable form of a flow.
type Graph struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
	// Dangling holds connections with a missing endpoint. They are not rendered
	// but survive the way back to FlowData.
	Dangling []domain.Edge `json:"dangling,omitempty"`
}

type config struct {
	distribute  bool
	distributor *layout.Distributor
	logger      *slog.Logger
}

// Option configures ToGraph.
type Option func(*config)

// WithoutDistribution keeps the stored positions untouched.
func WithoutDistribution() Option {
	return func(c *config) {
		c.distribute = false
	}
}

// WithDistributor sets the distributor used to place unpositioned nodes.
func WithDistributor(d *layout.Distributor) Option {
	return func(c *config) {
		c.distributor = d
	}
}

// WithLogger sets the logger used to report skipped connections.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// ToGraph builds the canvas collection of a flow. Connections whose endpoints are
// missing are kept apart in Dangling.
func ToGraph(flow domain.FlowData, opts ...Option) Graph {
	cfg := config{distribute: true, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := Graph{
		Nodes: make([]domain.Node, 0, len(flow.Cards)),
		Edges: make([]domain.Edge, 0, len(flow.Connections)),
	}

	for _, card := range flow.Cards {
		c := card.Clone()
		g.Nodes = append(g.Nodes, domain.Node{
			ID:       c.ID,
			Type:     c.Type,
			Position: c.Position,
			Data:     c,
		})
	}

	idx := flow.Index()
	for _, conn := range flow.Connections {
		_, okStart := idx[conn.Start]
		_, okEnd := idx[conn.End]
		if !okStart || !okEnd {
			cfg.logger.Warn("dangling connection", "id", conn.ID, "start", conn.Start, "end", conn.End)
			g.Dangling = append(g.Dangling, EdgeFrom(conn))
			continue
		}
		g.Edges = append(g.Edges, EdgeFrom(conn))
	}

	if cfg.distribute {
		d := cfg.distributor
		if d == nil {
			d = layout.New(layout.WithLogger(cfg.logger))
		}
		g.Nodes = d.Distribute(g.Nodes)
	}
	return g
}

// EdgeFrom converts a connection into a canvas edge.
func EdgeFrom(conn domain.Connection) domain.Edge {
	return domain.Edge{
		ID:           conn.ID,
		Source:       conn.Start,
		Target:       conn.End,
		SourceHandle: conn.SourceHandle,
		Data: domain.EdgeData{
			Type:            conn.Type,
			SourcePortLabel: conn.SourcePortLabel,
		},
	}
}

// ConnectionFrom converts a canvas edge into a connection. The type defaults to positive.
func ConnectionFrom(e domain.Edge) domain.Connection {
	t := e.Data.Type
	if t == "" {
		t = domain.ConnectionPositive
	}
	return domain.Connection{
		ID:              e.ID,
		Start:           e.Source,
		End:             e.Target,
		Type:            t,
		SourceHandle:    e.SourceHandle,
		SourcePortLabel: e.Data.SourcePortLabel,
	}
}

// ToFlowData converts the canvas collection back into a flow.
func ToFlowData(nodes []domain.Node, edges []domain.Edge, profile *domain.AssistantProfile) domain.FlowData {
	flow := domain.FlowData{
		Cards:       make([]domain.Card, 0, len(nodes)),
		Connections: make([]domain.Connection, 0, len(edges)),
	}
	for _, n := range nodes {
		card := n.Card()
		if card.ID == "" {
			card.ID = n.ID
		}
		if card.Type == "" {
			card.Type = n.Type
		}
		flow.Cards = append(flow.Cards, card)
	}
	for _, e := range edges {
		flow.Connections = append(flow.Connections, ConnectionFrom(e))
	}
	if profile != nil {
		p := profile.Clone()
		flow.Profile = &p
	}
	return flow
}

// NewConnection creates an edge from source to target through the given output port.
// A port holds at most one outgoing edge, so a second edge for the same source and
// handle returns domain.ErrDuplicateHandle.
func NewConnection(edges []domain.Edge, source, target, handle, label string) (domain.Edge, error) {
	if handle != "" {
		for _, e := range edges {
			if e.Source == source && e.SourceHandle == handle {
				return domain.Edge{}, fmt.Errorf("port %s of card %s: %w", handle, source, domain.ErrDuplicateHandle)
			}
		}
	}
	return domain.Edge{
		ID:           uuid.NewString(),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
		Data: domain.EdgeData{
			Type:            domain.ConnectionPositive,
			SourcePortLabel: label,
		},
	}, nil
}

// ProfileSource yields the last persisted assistant profile.
type ProfileSource interface {
	Persisted(ctx context.Context) (*domain.AssistantProfile, error)
}

// Assembler snapshots the canvas into a flow, merging the persisted profile.
type Assembler struct {
	profiles ProfileSource
	logger   *slog.Logger
}

// NewAssembler creates an Assembler. profiles may be nil.
func NewAssembler(profiles ProfileSource, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{profiles: profiles, logger: logger}
}

// Snapshot converts the canvas into a flow. The persisted profile wins when it is at
// least as recent as inMemory. A failing profile source is logged and inMemory is used.
func (a *Assembler) Snapshot(ctx context.Context, nodes []domain.Node, edges []domain.Edge, inMemory *domain.AssistantProfile) domain.FlowData {
	profile := inMemory
	if a.profiles != nil {
		persisted, err := a.profiles.Persisted(ctx)
		switch {
		case err != nil:
			a.logger.Warn("failed to read persisted profile", "error", err)
		case persisted != nil && (inMemory == nil || persisted.UpdatedAt >= inMemory.UpdatedAt):
			profile = persisted
		}
	}
	return ToFlowData(nodes, edges, profile)
}
