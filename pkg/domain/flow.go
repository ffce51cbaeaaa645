package domain

// FlowData is the aggregate root: the unit of persistence, import and export.
type FlowData struct {
	Cards       []Card            `json:"cards"`
	Connections []Connection      `json:"connections"`
	Profile     *AssistantProfile `json:"profile,omitempty"`
}

// CardByID returns the card with the given ID.
func (f FlowData) CardByID(id string) (Card, bool) {
	for _, c := range f.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// Index maps card IDs to their position in Cards. The first occurrence wins.
func (f FlowData) Index() map[string]int {
	idx := make(map[string]int, len(f.Cards))
	for i, c := range f.Cards {
		if _, ok := idx[c.ID]; !ok {
			idx[c.ID] = i
		}
	}
	return idx
}

// Outgoing returns the connections starting at cardID, in stored order.
func (f FlowData) Outgoing(cardID string) []Connection {
	var out []Connection
	for _, c := range f.Connections {
		if c.Start == cardID {
			out = append(out, c)
		}
	}
	return out
}

// EntryPoints returns every card of type CardInitial, in stored order.
func (f FlowData) EntryPoints() []Card {
	var out []Card
	for _, c := range f.Cards {
		if c.Type == CardInitial {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the flow.
func (f FlowData) Clone() FlowData {
	out := FlowData{
		Cards:       make([]Card, len(f.Cards)),
		Connections: append([]Connection{}, f.Connections...),
	}
	for i, c := range f.Cards {
		out.Cards[i] = c.Clone()
	}
	if f.Profile != nil {
		p := f.Profile.Clone()
		out.Profile = &p
	}
	return out
}
