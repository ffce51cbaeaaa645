package domain

import "encoding/json"

// Node is the canvas representation of a card.
//
// The node position is the single source of truth. Data keeps the card payload and
// Card() reads the position through the node, so the two can never drift apart.
type Node struct {
	ID       string
	Type     CardType
	Position Position
	Data     Card
}

// Card returns the card payload carrying the node's current position.
func (n Node) Card() Card {
	c := n.Data.Clone()
	c.Position = n.Position
	return c
}

type nodeJSON struct {
	ID       string   `json:"id"`
	Type     CardType `json:"type"`
	Position Position `json:"position"`
	Data     Card     `json:"data"`
}

// MarshalJSON emits the position in both the node and its data payload, which is the
// shape canvas libraries expect.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{ID: n.ID, Type: n.Type, Position: n.Position, Data: n.Card()})
}

// UnmarshalJSON reads a canvas node. The node position wins over data.position.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{ID: raw.ID, Type: raw.Type, Position: raw.Position, Data: raw.Data}
	if n.Type == "" {
		n.Type = raw.Data.Type
	}
	if n.ID == "" {
		n.ID = raw.Data.ID
	}
	return nil
}

// EdgeData is the presentation payload of an edge.
type EdgeData struct {
	Type            ConnectionType `json:"type,omitempty"`
	SourcePortLabel string         `json:"sourcePortLabel,omitempty"`
}

// Edge is the canvas representation of a connection.
type Edge struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	SourceHandle string   `json:"sourceHandle,omitempty"`
	Data         EdgeData `json:"data"`
}
