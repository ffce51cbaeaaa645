package dsl

import "github.com/aretw0/cardflow/pkg/domain"

type link struct {
	label  string
	target string
	kind   domain.ConnectionType
}

// CardBuilder provides a fluent API for configuring a card.
type CardBuilder struct {
	card  domain.Card
	links []link
}

// As sets the card type and title.
func (c *CardBuilder) As(t domain.CardType, title string) *CardBuilder {
	c.card.Type = t
	c.card.Title = title
	return c
}

// Initial marks the card as an entry point of the conversation.
func (c *CardBuilder) Initial(title string) *CardBuilder {
	return c.As(domain.CardInitial, title)
}

// End marks the card as a terminal card. End cards have no output ports.
func (c *CardBuilder) End(title string) *CardBuilder {
	c.links = nil
	return c.As(domain.CardEnd, title)
}

// Content sets the message shown to the user.
func (c *CardBuilder) Content(text string) *CardBuilder {
	c.card.Content = text
	return c
}

// Describe sets the card description.
func (c *CardBuilder) Describe(text string) *CardBuilder {
	c.card.Description = text
	return c
}

// Field sets a type-specific field (price, duration, question and so on).
func (c *CardBuilder) Field(key string, value any) *CardBuilder {
	if c.card.Fields == nil {
		c.card.Fields = make(map[string]any)
	}
	c.card.Fields[key] = value
	return c
}

// At pins the card to a canvas position. Unpinned cards are laid out on import.
func (c *CardBuilder) At(x, y float64) *CardBuilder {
	c.card.Position = domain.Position{X: x, Y: y}
	return c
}

// Go adds an unlabeled link to the target card. The conversation follows it on any reply.
func (c *CardBuilder) Go(target string) *CardBuilder {
	return c.Option("", target)
}

// Option adds a labeled output port linked to the target card.
func (c *CardBuilder) Option(label, target string) *CardBuilder {
	c.links = append(c.links, link{label: label, target: target, kind: domain.ConnectionPositive})
	return c
}

// Otherwise adds a negative link, drawn as the fallback path.
func (c *CardBuilder) Otherwise(label, target string) *CardBuilder {
	c.links = append(c.links, link{label: label, target: target, kind: domain.ConnectionNegative})
	return c
}

// Build returns the card as declared, without its ports.
// This is primarily used by the Builder, but exposed for advanced usage.
func (c *CardBuilder) Build() domain.Card {
	return c.card
}
