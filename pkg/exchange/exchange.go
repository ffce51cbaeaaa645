// Package exchange imports and exports flows as JSON or YAML documents.
package exchange

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFlow is returned when a document cannot be read as a flow.
var ErrInvalidFlow = errors.New("invalid flow data")

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

// Decode parses a flow document. Structural problems are reported as ErrInvalidFlow.
func Decode(data []byte, format Format) (domain.FlowData, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return domain.FlowData{}, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
		}
		data = converted
	}

	var flow domain.FlowData
	if err := json.Unmarshal(data, &flow); err != nil {
		return domain.FlowData{}, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
	}
	if err := check(flow); err != nil {
		return domain.FlowData{}, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
	}
	if flow.Cards == nil {
		flow.Cards = []domain.Card{}
	}
	if flow.Connections == nil {
		flow.Connections = []domain.Connection{}
	}
	return flow, nil
}

// check enforces the minimum a flow needs to be rendered. Titles and fields stay lenient.
func check(flow domain.FlowData) error {
	for i, c := range flow.Cards {
		if c.ID == "" {
			return fmt.Errorf("card %d: missing id", i)
		}
		if c.Type == "" {
			return fmt.Errorf("card %s: missing type", c.ID)
		}
	}
	for i, c := range flow.Connections {
		if c.ID == "" || c.Start == "" || c.End == "" {
			return fmt.Errorf("connection %d: id, start and end are required", i)
		}
	}
	return nil
}

// Encode writes a flow document. JSON output is indented with two spaces.
func Encode(flow domain.FlowData, format Format) ([]byte, error) {
	if flow.Cards == nil {
		flow.Cards = []domain.Card{}
	}
	if flow.Connections == nil {
		flow.Connections = []domain.Connection{}
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}
	if format == FormatYAML {
		return jsonToYAML(data)
	}
	return append(data, '\n'), nil
}

// yamlToJSON goes through a generic value so the custom JSON decoders of the domain
// types (tolerant positions, string-or-object ports) apply to YAML input too.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// jsonToYAML parses JSON as YAML (JSON is a YAML subset) to keep key order, then
// re-emits it in block style.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert flow to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle && n.Tag == "!!str" {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// FileName builds the default export name, e.g. "cardflow-flow-20240501-120000.json".
func FileName(kind, ext string, now time.Time) string {
	return fmt.Sprintf("cardflow-%s-%s.%s", kind, now.Format("20060102-150405"), strings.TrimPrefix(ext, "."))
}
