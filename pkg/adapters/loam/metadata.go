package loam

// Document kinds kept in the repository.
const (
	KindSlot   = "slot"
	KindScript = "script"
)

// Metadata is the frontmatter of every cardflow document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type Metadata struct {
	Kind string `json:"kind" mapstructure:"kind"`

	// Slot is the original key of a slot document.
	Slot string `json:"slot,omitempty" mapstructure:"slot"`

	// Script documents
	Name        string `json:"name,omitempty" mapstructure:"name"`
	GeneratedAt string `json:"generated_at,omitempty" mapstructure:"generated_at"` // RFC 3339
	Cards       int    `json:"cards,omitempty" mapstructure:"cards"`
	Connections int    `json:"connections,omitempty" mapstructure:"connections"`
}
