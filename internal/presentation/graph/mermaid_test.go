package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/cardflow/internal/presentation/graph"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name        string
		flow        domain.FlowData
		overlay     *graph.Overlay
		contains    []string
		notContains []string
	}{
		{
			name: "Shapes By Type",
			flow: domain.FlowData{Cards: []domain.Card{
				{ID: "a", Type: domain.CardInitial, Title: "Start"},
				{ID: "b", Type: domain.CardService, Title: "Haircut"},
				{ID: "c", Type: domain.CardScheduling, Title: "Book"},
				{ID: "d", Type: domain.CardFAQ, Title: "Hours"},
				{ID: "e", Type: domain.CardEnd, Title: "Bye"},
				{ID: "f", Type: "custom", Title: "Other"},
			}},
			contains: []string{
				`a(("Start"))`,
				`b[["Haircut"]]`,
				`c[/"Book"/]`,
				`d{"Hours"}`,
				`e(["Bye"])`,
				`f["Other"]`,
			},
		},
		{
			name: "ID Sanitization And Label Escaping",
			flow: domain.FlowData{Cards: []domain.Card{
				{ID: "node-1.v2", Title: `Say "hi"`},
				{ID: "untitled/card"},
			}},
			contains: []string{
				`node_1_v2["Say 'hi'"]`,
				`untitled_card["untitled/card"]`,
			},
		},
		{
			name: "Connection Polarity",
			flow: domain.FlowData{
				Cards: []domain.Card{{ID: "a"}, {ID: "b"}},
				Connections: []domain.Connection{
					{ID: "1", Start: "a", End: "b", SourcePortLabel: "yes"},
					{ID: "2", Start: "a", End: "b", Type: domain.ConnectionNegative, SourcePortLabel: "no"},
					{ID: "3", Start: "a", End: "b", Type: domain.ConnectionNeutral},
				},
			},
			contains: []string{
				`a -- "yes" --> b`,
				`a -. "no" .-> b`,
				`a == "any response" ==> b`,
			},
		},
		{
			name: "Dangling Connections Are Skipped",
			flow: domain.FlowData{
				Cards:       []domain.Card{{ID: "a"}},
				Connections: []domain.Connection{{ID: "1", Start: "a", End: "ghost"}},
			},
			notContains: []string{"ghost"},
		},
		{
			name: "Overlay",
			flow: domain.FlowData{Cards: []domain.Card{{ID: "a"}, {ID: "b"}}},
			overlay: &graph.Overlay{
				VisitedCards: []string{"a", "a", "missing"},
				CurrentCard:  "b",
			},
			contains: []string{
				"classDef visited",
				"class a visited;",
				"class b current;",
			},
			notContains: []string{"class missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.flow, tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, got, s)
			}
			if tt.overlay != nil {
				assert.Equal(t, 1, strings.Count(got, "class a visited;"))
			}
		})
	}
}
