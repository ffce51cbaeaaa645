package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CardType identifies the kind of a card. It determines which fields are meaningful
// and how the card is presented.
type CardType string

// Known card types. Unknown values are tolerated and treated as custom cards.
const (
	CardInitial      CardType = "initial"
	CardMessage      CardType = "mensagem"
	CardEnd          CardType = "end"
	CardService      CardType = "servico"
	CardProduct      CardType = "produto"
	CardScheduling   CardType = "agendar"
	CardConfirmation CardType = "confirmacao"
	CardPromotion    CardType = "promocao"
	CardContact      CardType = "contato"
	CardFAQ          CardType = "faq"
	CardFiles        CardType = "arquivos"
)

var knownCardTypes = map[CardType]bool{
	CardInitial:      true,
	CardMessage:      true,
	CardEnd:          true,
	CardService:      true,
	CardProduct:      true,
	CardScheduling:   true,
	CardConfirmation: true,
	CardPromotion:    true,
	CardContact:      true,
	CardFAQ:          true,
	CardFiles:        true,
}

// IsKnown reports whether t is one of the built-in card types.
func (t CardType) IsKnown() bool {
	return knownCardTypes[t]
}

// MeaningfulThreshold is the coordinate magnitude above which a position counts as
// authored. Positions at or near the origin are treated as unset.
const MeaningfulThreshold = 10.0

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// IsMeaningful reports whether at least one coordinate exceeds MeaningfulThreshold.
func (p Position) IsMeaningful() bool {
	return math.Abs(p.X) > MeaningfulThreshold || math.Abs(p.Y) > MeaningfulThreshold
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else decodes to 0 so
// that a malformed coordinate never fails a whole load.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		// null, arrays and scalars fall back to the origin
		*p = Position{}
		return nil
	}
	*p = Position{X: coordinate(raw["x"]), Y: coordinate(raw["y"])}
	return nil
}

func coordinate(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// OutputPort is one exit intent of a card. Older flows store ports as bare strings,
// newer ones as {id, label} objects; both shapes are preserved on re-encoding.
type OutputPort struct {
	ID    string
	Label string
	bare  bool
}

// BarePort builds a port that serializes as a plain string.
func BarePort(id string) OutputPort {
	return OutputPort{ID: id, bare: true}
}

// DisplayLabel returns the label, falling back to the ID.
func (p OutputPort) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}

type portObject struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// MarshalJSON writes bare ports as strings and labeled ports as objects.
func (p OutputPort) MarshalJSON() ([]byte, error) {
	if p.bare {
		return json.Marshal(p.ID)
	}
	return json.Marshal(portObject{ID: p.ID, Label: p.Label})
}

// UnmarshalJSON accepts either a string or an {id, label} object.
func (p *OutputPort) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = BarePort(s)
		return nil
	}
	var obj portObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("output port must be a string or an object: %w", err)
	}
	*p = OutputPort{ID: obj.ID, Label: obj.Label}
	return nil
}

// File is an attachment of a CardFiles card.
type File struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
}

// IsImage reports whether the attachment has an image MIME type.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.Type), "image/")
}

// Card is a node of the conversation graph.
type Card struct {
	ID          string         `json:"id"`
	Type        CardType       `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Content     string         `json:"content,omitempty"`
	Position    Position       `json:"position"`
	Fields      map[string]any `json:"fields,omitempty"`
	OutputPorts []OutputPort   `json:"outputPorts,omitempty"`
	Files       []File         `json:"files,omitempty"`
}

// Port returns the output port with the given ID.
func (c Card) Port(id string) (OutputPort, bool) {
	for _, p := range c.OutputPorts {
		if p.ID == id {
			return p, true
		}
	}
	return OutputPort{}, false
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	if c.Fields != nil {
		out.Fields = make(map[string]any, len(c.Fields))
		for k, v := range c.Fields {
			out.Fields[k] = v
		}
	}
	if c.OutputPorts != nil {
		out.OutputPorts = append([]OutputPort(nil), c.OutputPorts...)
	}
	if c.Files != nil {
		out.Files = append([]File(nil), c.Files...)
	}
	return out
}
