package script

import (
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
)

type frameKind int

const (
	frameVisit frameKind = iota
	frameCyclic
)

// frame is one pending step of the depth-first walk. path holds the cards on the way
// from the entry point to this frame and is copied before a visit extends it.
type frame struct {
	kind   frameKind
	cardID string
	number string
	path   map[string]bool
}

type traversal struct {
	flow  domain.FlowData
	cards map[string]domain.Card
	w     *writer
	stats *Stats
}

func newTraversal(flow domain.FlowData, w *writer, stats *Stats) *traversal {
	cards := make(map[string]domain.Card, len(flow.Cards))
	for _, c := range flow.Cards {
		if _, ok := cards[c.ID]; !ok {
			cards[c.ID] = c
		}
	}
	return &traversal{flow: flow, cards: cards, w: w, stats: stats}
}

// walk expands the tree rooted at id using an explicit stack, so deep flows never
// grow the goroutine stack. Children are pushed in reverse to keep preorder output.
func (t *traversal) walk(id, number string) {
	stack := []frame{{kind: frameVisit, cardID: id, number: number, path: map[string]bool{}}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		card := t.cards[f.cardID]
		if f.kind == frameCyclic {
			t.stats.Cycles++
			t.w.linef("### %s Cyclic reference to card %q (id: %s): already processed on this path.", f.number, card.Title, card.ID)
			t.w.blank()
			continue
		}

		t.stats.Visited++
		path := copyPath(f.path)
		path[card.ID] = true

		edges := t.resolved(card.ID)
		writeCard(t.w, f.number, card)
		t.writeIntents(edges)

		for i := len(edges) - 1; i >= 0; i-- {
			target := edges[i].End
			child := frame{
				kind:   frameVisit,
				cardID: target,
				number: fmt.Sprintf("%s.%d", f.number, i+1),
				path:   path,
			}
			if path[target] {
				child.kind = frameCyclic
			}
			stack = append(stack, child)
		}
	}
}

// resolved returns the outgoing connections of id whose target exists.
func (t *traversal) resolved(id string) []domain.Connection {
	var out []domain.Connection
	for _, c := range t.flow.Outgoing(id) {
		if _, ok := t.cards[c.End]; !ok {
			t.stats.Dangling++
			continue
		}
		out = append(out, c)
	}
	return out
}

func (t *traversal) writeIntents(edges []domain.Connection) {
	if len(edges) == 0 {
		t.stats.Terminals++
		t.w.line("- Terminal node: the conversation ends here.")
		t.w.blank()
		return
	}
	t.w.line("Intents:")
	for _, c := range edges {
		target := t.cards[c.End]
		t.w.linef("- if the user expresses intent '%s', go to card '%s' (id: %s)", c.IntentLabel(), target.Title, target.ID)
	}
	t.w.blank()
}

func copyPath(p map[string]bool) map[string]bool {
	out := make(map[string]bool, len(p)+1)
	for k := range p {
		out[k] = true
	}
	return out
}
