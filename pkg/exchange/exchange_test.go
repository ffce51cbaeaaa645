package exchange

import (
	"testing"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "cards": [
    {"id": "c1", "type": "initial", "title": "Welcome", "position": {"x": "120", "y": 300},
     "outputPorts": ["o1", {"id": "o2", "label": "no"}]},
    {"id": "c2", "type": "produto", "title": "Suite", "position": {"x": 0, "y": 0},
     "fields": {"nome": "Suite", "quartos": 3}}
  ],
  "connections": [
    {"id": "e1", "start": "c1", "end": "c2", "type": "custom", "sourceHandle": "o1", "sourcePortLabel": "yes"}
  ]
}`

func TestDecode_JSON(t *testing.T) {
	flow, err := Decode([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	require.Len(t, flow.Cards, 2)
	assert.Equal(t, domain.Position{X: 120, Y: 300}, flow.Cards[0].Position)
	assert.Equal(t, "no", flow.Cards[0].OutputPorts[1].DisplayLabel())
	assert.Equal(t, float64(3), flow.Cards[1].Fields["quartos"])
	assert.Equal(t, domain.ConnectionCustom, flow.Connections[0].Type)
}

func TestEncode_RoundTrip(t *testing.T) {
	flow, err := Decode([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(flow, format)
			require.NoError(t, err)

			back, err := Decode(data, format)
			require.NoError(t, err)
			assert.Equal(t, flow, back)
		})
	}
}

func TestEncode_YAMLIsBlockStyle(t *testing.T) {
	flow := domain.FlowData{Cards: []domain.Card{{ID: "c1", Type: domain.CardInitial, Title: "123"}}}

	data, err := Encode(flow, FormatYAML)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "cards:\n  - id: c1\n")
	assert.Contains(t, out, "connections: []")

	back, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "123", back.Cards[0].Title, "numeric-looking strings stay strings")
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Not JSON", `{cards:`},
		{"Missing Card ID", `{"cards":[{"type":"initial"}]}`},
		{"Missing Card Type", `{"cards":[{"id":"a"}]}`},
		{"Missing Connection End", `{"cards":[],"connections":[{"id":"e","start":"a"}]}`},
		{"Bad Port", `{"cards":[{"id":"a","type":"initial","outputPorts":[42]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), FormatJSON)
			assert.ErrorIs(t, err, ErrInvalidFlow)
		})
	}

	_, err := Decode([]byte("cards: [\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidFlow)
}

func TestDecode_EmptyCollections(t *testing.T) {
	flow, err := Decode([]byte(`{}`), FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, flow.Cards)
	assert.NotNil(t, flow.Connections)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("flow.JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = FormatFromPath("dir/flow.yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("flow.txt")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 5, 0, time.UTC)
	assert.Equal(t, "cardflow-flow-20240501-123005.json", FileName("flow", "json", now))
	assert.Equal(t, "cardflow-script-20240501-123005.md", FileName("script", ".md", now))
}
