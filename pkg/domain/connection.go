package domain

// ConnectionType classifies the polarity of a connection. It only drives presentation
// (edge color); traversal ignores it.
type ConnectionType string

const (
	ConnectionPositive ConnectionType = "positive"
	ConnectionNegative ConnectionType = "negative"
	ConnectionNeutral  ConnectionType = "neutral"
	// ConnectionCustom is a legacy synonym of ConnectionPositive.
	ConnectionCustom ConnectionType = "custom"
)

// Polarity maps legacy and empty values onto the three presentation classes.
func (t ConnectionType) Polarity() ConnectionType {
	switch t {
	case ConnectionNegative, ConnectionNeutral:
		return t
	default:
		return ConnectionPositive
	}
}

// DefaultIntentLabel is used when a connection carries no source port label.
const DefaultIntentLabel = "any response"

// Connection is a directed edge between two cards.
type Connection struct {
	ID              string         `json:"id"`
	Start           string         `json:"start"`
	End             string         `json:"end"`
	Type            ConnectionType `json:"type,omitempty"`
	SourceHandle    string         `json:"sourceHandle,omitempty"`
	SourcePortLabel string         `json:"sourcePortLabel,omitempty"`
}

// IntentLabel returns the label of the intent that triggers this connection.
func (c Connection) IntentLabel() string {
	if c.SourcePortLabel != "" {
		return c.SourcePortLabel
	}
	return DefaultIntentLabel
}
