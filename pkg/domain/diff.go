package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// FlowDiff lists the cards and connections that differ between two flows, by ID.
type FlowDiff struct {
	AddedCards         []string `json:"addedCards,omitempty"`
	RemovedCards       []string `json:"removedCards,omitempty"`
	ChangedCards       []string `json:"changedCards,omitempty"`
	AddedConnections   []string `json:"addedConnections,omitempty"`
	RemovedConnections []string `json:"removedConnections,omitempty"`
	ChangedConnections []string `json:"changedConnections,omitempty"`
}

// Diff compares two flows. IDs keep the order of the flow they come from.
func Diff(oldFlow, newFlow FlowData) FlowDiff {
	var d FlowDiff

	oldCards := make(map[string]Card, len(oldFlow.Cards))
	for _, c := range oldFlow.Cards {
		oldCards[c.ID] = c
	}
	seen := make(map[string]bool, len(newFlow.Cards))
	for _, c := range newFlow.Cards {
		seen[c.ID] = true
		prev, ok := oldCards[c.ID]
		switch {
		case !ok:
			d.AddedCards = append(d.AddedCards, c.ID)
		case !reflect.DeepEqual(prev, c):
			d.ChangedCards = append(d.ChangedCards, c.ID)
		}
	}
	for _, c := range oldFlow.Cards {
		if !seen[c.ID] {
			d.RemovedCards = append(d.RemovedCards, c.ID)
		}
	}

	oldConns := make(map[string]Connection, len(oldFlow.Connections))
	for _, c := range oldFlow.Connections {
		oldConns[c.ID] = c
	}
	seen = make(map[string]bool, len(newFlow.Connections))
	for _, c := range newFlow.Connections {
		seen[c.ID] = true
		prev, ok := oldConns[c.ID]
		switch {
		case !ok:
			d.AddedConnections = append(d.AddedConnections, c.ID)
		case prev != c:
			d.ChangedConnections = append(d.ChangedConnections, c.ID)
		}
	}
	for _, c := range oldFlow.Connections {
		if !seen[c.ID] {
			d.RemovedConnections = append(d.RemovedConnections, c.ID)
		}
	}
	return d
}

// Empty reports whether the flows had the same cards and connections.
func (d FlowDiff) Empty() bool {
	return len(d.AddedCards)+len(d.RemovedCards)+len(d.ChangedCards)+
		len(d.AddedConnections)+len(d.RemovedConnections)+len(d.ChangedConnections) == 0
}

// String summarizes the diff, e.g. "cards +1 -0 ~2, connections +1 -1 ~0".
func (d FlowDiff) String() string {
	if d.Empty() {
		return "no changes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "cards +%d -%d ~%d", len(d.AddedCards), len(d.RemovedCards), len(d.ChangedCards))
	fmt.Fprintf(&b, ", connections +%d -%d ~%d", len(d.AddedConnections), len(d.RemovedConnections), len(d.ChangedConnections))
	return b.String()
}
