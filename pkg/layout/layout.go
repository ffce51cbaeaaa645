// Package layout places canvas nodes that have no authored position.
//
// When most nodes already carry a meaningful position the input is returned as is.
// Otherwise the unpositioned nodes are placed on a fixed anchor per card type, with
// service cards fanning out diagonally and unknown types scattered at random.
package layout

import (
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
)

// PositionedRatio is the share of meaningful positions at which the layout is kept.
const PositionedRatio = 0.7

// ServiceStep is the offset between consecutive unpositioned service cards.
var ServiceStep = domain.Position{X: 250, Y: 50}

// Anchors maps card types to their default canvas position.
var Anchors = map[domain.CardType]domain.Position{
	domain.CardInitial:      {X: 100, Y: 300},
	domain.CardService:      {X: 400, Y: 100},
	domain.CardScheduling:   {X: 700, Y: 300},
	domain.CardConfirmation: {X: 1000, Y: 300},
	domain.CardPromotion:    {X: 400, Y: 500},
	domain.CardProduct:      {X: 700, Y: 100},
}

// Bounds of the random placement for types without an anchor.
const (
	minX, maxX = 100, 900
	minY, maxY = 100, 600
)

// Distributor assigns positions to nodes. It is safe for concurrent use.
type Distributor struct {
	mu     sync.Mutex // guards rand
	rand   *rand.Rand
	logger *slog.Logger
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithRand sets the random source used for types without an anchor.
func WithRand(r *rand.Rand) Option {
	return func(d *Distributor) {
		d.rand = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Distributor) {
		d.logger = logger
	}
}

// New creates a Distributor.
func New(opts ...Option) *Distributor {
	d := &Distributor{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rand == nil {
		d.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d
}

// Distribute returns the nodes with positions filled in. Order and length are kept
// and nodes that already have a meaningful position are never moved.
func (d *Distributor) Distribute(nodes []domain.Node) []domain.Node {
	out := make([]domain.Node, len(nodes))
	copy(out, nodes)

	if len(out) == 0 || IsLaidOut(out) {
		return out
	}

	services := 0
	moved := 0
	for i := range out {
		if out[i].Position.IsMeaningful() {
			continue
		}
		out[i].Position = d.place(out[i].Type, &services)
		moved++
	}

	d.logger.Debug("distributed nodes", "total", len(out), "moved", moved)
	return out
}

func (d *Distributor) place(t domain.CardType, services *int) domain.Position {
	anchor, ok := Anchors[t]
	if !ok {
		d.mu.Lock()
		defer d.mu.Unlock()
		return domain.Position{
			X: minX + d.rand.Float64()*(maxX-minX),
			Y: minY + d.rand.Float64()*(maxY-minY),
		}
	}
	if t == domain.CardService {
		k := float64(*services)
		*services++
		return domain.Position{X: anchor.X + k*ServiceStep.X, Y: anchor.Y + k*ServiceStep.Y}
	}
	return anchor
}

// IsLaidOut reports whether at least PositionedRatio of the nodes have a meaningful position.
func IsLaidOut(nodes []domain.Node) bool {
	if len(nodes) == 0 {
		return true
	}
	positioned := 0
	for _, n := range nodes {
		if n.Position.IsMeaningful() {
			positioned++
		}
	}
	return float64(positioned) >= PositionedRatio*float64(len(nodes))
}

// Distribute places nodes with a default Distributor.
func Distribute(nodes []domain.Node) []domain.Node {
	return New().Distribute(nodes)
}
