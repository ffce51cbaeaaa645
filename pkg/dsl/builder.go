package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
)

// Builder manages the flow construction.
type Builder struct {
	order   []string
	cards   map[string]*CardBuilder
	profile *domain.AssistantProfile
}

// New creates a new flow builder.
func New() *Builder {
	return &Builder{
		cards: make(map[string]*CardBuilder),
	}
}

// Add creates a new message card in the flow.
// If the card already exists, it returns the existing builder.
func (b *Builder) Add(id string) *CardBuilder {
	if cb, ok := b.cards[id]; ok {
		return cb
	}
	cb := &CardBuilder{
		card: domain.Card{ID: id, Type: domain.CardMessage},
	}
	b.cards[id] = cb
	b.order = append(b.order, id)
	return cb
}

// Profile sets the assistant profile carried by the flow.
func (b *Builder) Profile(p domain.AssistantProfile) *Builder {
	b.profile = &p
	return b
}

// Build assembles the flow. Every link must point to a declared card.
func (b *Builder) Build() (domain.FlowData, error) {
	flow := domain.FlowData{
		Cards:       make([]domain.Card, 0, len(b.order)),
		Connections: []domain.Connection{},
		Profile:     b.profile,
	}

	var errs []error
	for _, id := range b.order {
		cb := b.cards[id]
		card := cb.card
		card.OutputPorts = nil

		for i, l := range cb.links {
			if _, ok := b.cards[l.target]; !ok {
				errs = append(errs, fmt.Errorf("link from %s to %s: %w", id, l.target, domain.ErrCardNotFound))
				continue
			}
			port := domain.OutputPort{ID: fmt.Sprintf("o%d", i+1), Label: l.label}
			card.OutputPorts = append(card.OutputPorts, port)
			flow.Connections = append(flow.Connections, domain.Connection{
				ID:              fmt.Sprintf("c%d", len(flow.Connections)+1),
				Start:           id,
				End:             l.target,
				Type:            l.kind,
				SourceHandle:    port.ID,
				SourcePortLabel: l.label,
			})
		}
		if len(card.OutputPorts) == 0 && card.Type != domain.CardEnd {
			card.OutputPorts = []domain.OutputPort{{ID: "o1"}}
		}
		flow.Cards = append(flow.Cards, card)
	}

	if err := errors.Join(errs...); err != nil {
		return domain.FlowData{}, err
	}
	return flow, nil
}
