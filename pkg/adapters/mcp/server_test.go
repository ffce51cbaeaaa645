package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/exchange"
	"github.com/aretw0/cardflow/pkg/simulate"
	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flow = `{
  "cards": [
    {"id": "start", "type": "initial", "title": "Welcome", "outputPorts": [{"id": "o1", "label": "yes"}, {"id": "o2", "label": "no"}]},
    {"id": "book", "type": "agendar", "title": "Book a slot", "outputPorts": ["o1"]},
    {"id": "bye", "type": "end", "title": "Goodbye"}
  ],
  "connections": [
    {"id": "c1", "start": "start", "end": "book", "sourceHandle": "o1", "sourcePortLabel": "yes"},
    {"id": "c2", "start": "start", "end": "bye", "sourceHandle": "o2", "sourcePortLabel": "no"},
    {"id": "c3", "start": "book", "end": "bye", "sourceHandle": "o1"}
  ]
}`

func newServer(t *testing.T) *Server {
	t.Helper()
	editor := cardflow.New()
	t.Cleanup(func() { _ = editor.Close() })
	require.NoError(t, editor.Import(context.Background(), []byte(flow), exchange.FormatJSON))
	return NewServer(editor)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestGenerateScript(t *testing.T) {
	s := newServer(t)
	res, err := s.handleGenerateScript(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "Welcome")
	assert.Contains(t, text, "Book a slot")
}

func TestGetGraph(t *testing.T) {
	s := newServer(t)
	res, err := s.handleGetGraph(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	var g struct {
		Nodes []domain.Node `json:"nodes"`
		Edges []domain.Edge `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &g))
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 3)
}

func TestDescribeCard(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	detail, err := s.handleDescribeCard(ctx, mcp.CallToolRequest{}, describeArgs{CardID: "start"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome", detail.Card.Title)
	assert.Len(t, detail.Outgoing, 2)
	assert.False(t, detail.Terminal)

	detail, err = s.handleDescribeCard(ctx, mcp.CallToolRequest{}, describeArgs{CardID: "bye"})
	require.NoError(t, err)
	assert.True(t, detail.Terminal)
	assert.NotNil(t, detail.Outgoing)

	_, err = s.handleDescribeCard(ctx, mcp.CallToolRequest{}, describeArgs{CardID: "nope"})
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestReplayConversation(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	resp, err := s.handleReplay(ctx, mcp.CallToolRequest{}, replayArgs{Replies: `["maybe", "yes"]`})
	require.NoError(t, err)
	require.Len(t, resp.Steps, 2)
	assert.False(t, resp.Steps[0].Matched)
	assert.Equal(t, "book", resp.Steps[1].To)
	assert.Equal(t, "book", resp.Current.ID)
	assert.False(t, resp.Ended)

	resp, err = s.handleReplay(ctx, mcp.CallToolRequest{}, replayArgs{StartAt: "book", Replies: `["anything", "ignored"]`})
	require.NoError(t, err)
	assert.True(t, resp.Ended)
	assert.Equal(t, "bye", resp.Current.ID)
	assert.Len(t, resp.Steps, 1, "replies after the end are ignored")

	_, err = s.handleReplay(ctx, mcp.CallToolRequest{}, replayArgs{Replies: `not-json`})
	assert.Error(t, err)
}

func TestReplayRejectsOversizedInput(t *testing.T) {
	t.Setenv(simulate.EnvMaxInputSize, "4")
	s := newServer(t)

	_, err := s.handleReplay(context.Background(), mcp.CallToolRequest{}, replayArgs{Replies: `["far too long"]`})
	assert.ErrorIs(t, err, simulate.ErrInputTooLarge)
}

func TestAnalyze(t *testing.T) {
	s := newServer(t)
	report, err := s.handleAnalyze(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.False(t, report.HasErrors())
	assert.Len(t, report.Reachable, 3)
}

func TestJSONResource(t *testing.T) {
	s := newServer(t)
	contents, err := s.jsonResource(profileURI, domain.AssistantProfile{Name: "Ana"})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, profileURI, text.URI)
	assert.Contains(t, text.Text, `"name":"Ana"`)
}
