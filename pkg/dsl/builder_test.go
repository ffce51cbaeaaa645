package dsl

import (
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New()

	b.Add("start").
		Initial("Welcome").
		Content("Hi! Do you want a quote?").
		Option("yes", "quote").
		Otherwise("no", "bye")

	b.Add("quote").
		As(domain.CardService, "Quote").
		Field("preco", "R$ 50").
		Go("bye")

	b.Add("bye").End("Goodbye")

	flow, err := b.Build()
	require.NoError(t, err)

	require.Len(t, flow.Cards, 3)
	assert.Equal(t, []string{"start", "quote", "bye"}, []string{flow.Cards[0].ID, flow.Cards[1].ID, flow.Cards[2].ID})

	start := flow.Cards[0]
	assert.Equal(t, domain.CardInitial, start.Type)
	assert.Equal(t, []domain.OutputPort{{ID: "o1", Label: "yes"}, {ID: "o2", Label: "no"}}, start.OutputPorts)
	assert.Empty(t, flow.Cards[2].OutputPorts, "end cards have no ports")

	require.Len(t, flow.Connections, 3)
	assert.Equal(t, domain.Connection{
		ID: "c2", Start: "start", End: "bye", Type: domain.ConnectionNegative,
		SourceHandle: "o2", SourcePortLabel: "no",
	}, flow.Connections[1])
	assert.Equal(t, "o1", flow.Connections[2].SourceHandle)
	assert.Equal(t, "R$ 50", flow.Cards[1].Fields["preco"])
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := New()
	first := b.Add("a").Initial("A")
	assert.Same(t, first, b.Add("a"))
	assert.Equal(t, "A", b.Add("a").Build().Title)
}

func TestBuilder_DefaultPort(t *testing.T) {
	b := New()
	b.Add("lonely").Content("Nobody follows me")

	flow, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.CardMessage, flow.Cards[0].Type)
	assert.Equal(t, []domain.OutputPort{{ID: "o1"}}, flow.Cards[0].OutputPorts)
	assert.Empty(t, flow.Connections)
}

func TestBuilder_UnknownTarget(t *testing.T) {
	b := New()
	b.Add("start").Initial("Start").Option("go", "missing").Option("other", "gone")

	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "gone")
}

func TestBuilder_Profile(t *testing.T) {
	b := New().Profile(domain.AssistantProfile{Name: "Ana"})
	b.Add("start").Initial("Hello").Go("end")
	b.Add("end").End("Bye")

	flow, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, flow.Profile)
	assert.Equal(t, "Ana", flow.Profile.Name)

	report := script.New().GenerateReport(flow)
	assert.Equal(t, 2, report.Stats.Visited)
	assert.Contains(t, report.Text, "Ana")
}
