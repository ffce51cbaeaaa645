package schema

import (
	"github.com/aretw0/cardflow/pkg/domain"
)

// Field is one entry of a card schema.
type Field struct {
	Key  string
	Type Type
}

// CardSchema lists the specific fields of a card type in display order.
type CardSchema struct {
	Type   domain.CardType
	Fields []Field
}

// Schema returns the validation map of the card schema.
func (c CardSchema) Schema() Schema {
	s := make(Schema, len(c.Fields))
	for _, f := range c.Fields {
		s[f.Key] = f.Type
	}
	return s
}

// Keys returns the field keys in display order.
func (c CardSchema) Keys() []string {
	keys := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		keys[i] = f.Key
	}
	return keys
}

var registry = map[domain.CardType]CardSchema{
	domain.CardService: {Type: domain.CardService, Fields: []Field{
		{"preco", Text()},
		{"duracao", Text()},
		{"guidelines", Text()},
	}},
	domain.CardProduct: {Type: domain.CardProduct, Fields: []Field{
		{"nome", Text()},
		{"preco", Text()},
		{"estoque", Number()},
		{"codigo", Text()},
		{"quartos", Number()},
		{"link", Text()},
		{"imagens", Text()},
	}},
	domain.CardScheduling: {Type: domain.CardScheduling, Fields: []Field{
		{"endereco", Text()},
		{"horarios", Text()},
		{"profissional", Text()},
		{"guidelines", Text()},
	}},
	domain.CardContact: {Type: domain.CardContact, Fields: []Field{
		{"telefone", Text()},
		{"email", Text()},
		{"endereco", Text()},
		{"whatsapp", Text()},
	}},
	domain.CardFAQ: {Type: domain.CardFAQ, Fields: []Field{
		{"pergunta", Text()},
		{"resposta", Text()},
	}},
	domain.CardPromotion: {Type: domain.CardPromotion, Fields: []Field{
		{"desconto", Text()},
		{"validade", Text()},
		{"cupom", Text()},
	}},
}

// For returns the schema registered for a card type.
func For(t domain.CardType) (CardSchema, bool) {
	s, ok := registry[t]
	return s, ok
}

// FieldOrder returns the display order of the known fields of a card type.
// Types without a schema return nil.
func FieldOrder(t domain.CardType) []string {
	s, ok := registry[t]
	if !ok {
		return nil
	}
	return s.Keys()
}

// ValidateCard validates the specific fields of a card against its type schema.
func ValidateCard(card domain.Card) error {
	s, ok := registry[card.Type]
	if !ok {
		return nil
	}
	return Validate(s.Schema(), card.Fields)
}
