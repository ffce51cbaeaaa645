package simulate

import (
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salonFlow() domain.FlowData {
	return domain.FlowData{
		Cards: []domain.Card{
			{ID: "menu", Type: domain.CardMessage, Title: "Menu"},
			{ID: "start", Type: domain.CardInitial, Title: "Welcome",
				OutputPorts: []domain.OutputPort{{ID: "o1", Label: "Haircut"}, {ID: "o2"}}},
			{ID: "cut", Type: domain.CardService, Title: "Haircut"},
			{ID: "bye", Type: domain.CardEnd, Title: "Bye"},
		},
		Connections: []domain.Connection{
			{ID: "e1", Start: "start", End: "cut", SourceHandle: "o1"},
			{ID: "e2", Start: "start", End: "bye", SourceHandle: "o2", SourcePortLabel: "no thanks"},
			{ID: "e3", Start: "cut", End: "menu"},
			{ID: "e4", Start: "menu", End: "ghost", SourcePortLabel: "anything"},
		},
	}
}

func TestSession_StartsAtEntryPoint(t *testing.T) {
	s, err := New(salonFlow())
	require.NoError(t, err)

	assert.Equal(t, "start", s.Current().ID)
	assert.Equal(t, []string{"Haircut", "no thanks"}, s.Options())
}

func TestSession_MatchesSubstringCaseInsensitive(t *testing.T) {
	s, err := New(salonFlow())
	require.NoError(t, err)

	res, err := s.Reply("I would like a HAIRCUT please")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "Haircut", res.Intent)
	assert.Equal(t, "cut", res.Card.ID)
	assert.False(t, res.Terminal)

	// unlabeled connection matches anything
	res, err = s.Reply("ok")
	require.NoError(t, err)
	assert.Equal(t, "menu", res.Card.ID)
	assert.True(t, res.Terminal, "dangling connections are not a way forward")

	_, err = s.Reply("hello?")
	assert.ErrorIs(t, err, ErrEnded)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "start", history[0].From)
	assert.Equal(t, "cut", history[0].To)
}

func TestSession_NoMatchStays(t *testing.T) {
	s, err := New(salonFlow())
	require.NoError(t, err)

	res, err := s.Reply("what time is it")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, "start", res.Card.ID)
	assert.Equal(t, "start", s.Current().ID)
}

func TestSession_FallbackEntryAndStartAt(t *testing.T) {
	flow := domain.FlowData{Cards: []domain.Card{{ID: "a", Type: domain.CardMessage}, {ID: "b", Type: domain.CardMessage}}}
	s, err := New(flow)
	require.NoError(t, err)
	assert.Equal(t, "a", s.Current().ID)
	assert.True(t, s.Ended())

	require.NoError(t, s.StartAt("b"))
	assert.Equal(t, "b", s.Current().ID)
	assert.ErrorIs(t, s.StartAt("zzz"), domain.ErrCardNotFound)
}

func TestSession_Errors(t *testing.T) {
	_, err := New(domain.FlowData{})
	assert.ErrorIs(t, err, ErrNoCards)

	s, err := New(salonFlow())
	require.NoError(t, err)
	_, err = s.Reply("bad \xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
