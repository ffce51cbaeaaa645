// Package analysis checks a flow for structural problems before it is rendered or
// simulated: broken references, unreachable cards, cycles and malformed fields.
package analysis

import (
	"fmt"
	"sort"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/schema"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue codes.
const (
	CodeDuplicateCard   = "duplicate_card_id"
	CodeDanglingEdge    = "dangling_connection"
	CodeDuplicateHandle = "duplicate_handle"
	CodeNoEntryPoint    = "no_entry_point"
	CodeUnreachable     = "unreachable_card"
	CodeCycle           = "cycle"
	CodeSelfLoop        = "self_loop"
	CodeInvalidFields   = "invalid_fields"
)

// Issue is one finding.
type Issue struct {
	Severity     Severity `json:"severity"`
	Code         string   `json:"code"`
	CardID       string   `json:"cardId,omitempty"`
	ConnectionID string   `json:"connectionId,omitempty"`
	Message      string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
}

// Report is the result of Analyze.
type Report struct {
	Issues      []Issue    `json:"issues"`
	Reachable   []string   `json:"reachable"`
	Unreachable []string   `json:"unreachable"`
	Cycles      [][]string `json:"cycles"`
}

// HasErrors reports whether any issue has SeverityError.
func (r Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of issues of a severity.
func (r Report) Count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

type analyzer struct {
	flow   domain.FlowData
	ids    map[string]int64
	names  []string
	g      *simple.DirectedGraph
	report Report
}

// Analyze inspects the flow. It never modifies it.
func Analyze(flow domain.FlowData) Report {
	a := &analyzer{
		flow: flow,
		ids:  make(map[string]int64, len(flow.Cards)),
		g:    simple.NewDirectedGraph(),
		report: Report{
			Issues:      []Issue{},
			Reachable:   []string{},
			Unreachable: []string{},
			Cycles:      [][]string{},
		},
	}
	a.addCards()
	a.addConnections()
	a.checkReachability()
	a.checkCycles()
	return a.report
}

func (a *analyzer) add(i Issue) {
	a.report.Issues = append(a.report.Issues, i)
}

func (a *analyzer) addCards() {
	for _, c := range a.flow.Cards {
		if _, dup := a.ids[c.ID]; dup {
			a.add(Issue{
				Severity: SeverityError,
				Code:     CodeDuplicateCard,
				CardID:   c.ID,
				Message:  fmt.Sprintf("card id %q is used more than once", c.ID),
			})
			continue
		}
		id := int64(len(a.names))
		a.ids[c.ID] = id
		a.names = append(a.names, c.ID)
		a.g.AddNode(simple.Node(id))

		if err := schema.ValidateCard(c); err != nil {
			a.add(Issue{
				Severity: SeverityWarning,
				Code:     CodeInvalidFields,
				CardID:   c.ID,
				Message:  err.Error(),
			})
		} else if _, err := schema.Decode(c); err != nil {
			a.add(Issue{
				Severity: SeverityWarning,
				Code:     CodeInvalidFields,
				CardID:   c.ID,
				Message:  err.Error(),
			})
		}
	}
}

func (a *analyzer) addConnections() {
	type handle struct{ source, port string }
	used := make(map[handle]string)

	for _, c := range a.flow.Connections {
		from, okFrom := a.ids[c.Start]
		to, okTo := a.ids[c.End]
		if !okFrom || !okTo {
			a.add(Issue{
				Severity:     SeverityWarning,
				Code:         CodeDanglingEdge,
				ConnectionID: c.ID,
				Message:      fmt.Sprintf("connection %s references a missing card (%s -> %s)", c.ID, c.Start, c.End),
			})
			continue
		}

		if c.SourceHandle != "" {
			h := handle{c.Start, c.SourceHandle}
			if first, dup := used[h]; dup {
				a.add(Issue{
					Severity:     SeverityError,
					Code:         CodeDuplicateHandle,
					CardID:       c.Start,
					ConnectionID: c.ID,
					Message:      fmt.Sprintf("port %s of card %s is already used by connection %s", c.SourceHandle, c.Start, first),
				})
			} else {
				used[h] = c.ID
			}
		}

		// gonum simple graphs reject self-loops
		if from == to {
			a.add(Issue{
				Severity:     SeverityInfo,
				Code:         CodeSelfLoop,
				CardID:       c.Start,
				ConnectionID: c.ID,
				Message:      fmt.Sprintf("card %s connects to itself", c.Start),
			})
			continue
		}
		a.g.SetEdge(a.g.NewEdge(simple.Node(from), simple.Node(to)))
	}
}

func (a *analyzer) checkReachability() {
	if len(a.names) == 0 {
		return
	}

	var roots []int64
	for _, c := range a.flow.EntryPoints() {
		if id, ok := a.ids[c.ID]; ok {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		a.add(Issue{
			Severity: SeverityWarning,
			Code:     CodeNoEntryPoint,
			CardID:   a.names[0],
			Message:  fmt.Sprintf("no card of type %q; %s is used as the entry point", domain.CardInitial, a.names[0]),
		})
		roots = []int64{0}
	}

	reached := make(map[int64]bool, len(a.names))
	for _, r := range roots {
		var bf traverse.BreadthFirst
		bf.Walk(a.g, simple.Node(r), nil)
		for id := range a.names {
			if bf.Visited(simple.Node(int64(id))) {
				reached[int64(id)] = true
			}
		}
	}

	for id, name := range a.names {
		if reached[int64(id)] {
			a.report.Reachable = append(a.report.Reachable, name)
			continue
		}
		a.report.Unreachable = append(a.report.Unreachable, name)
		a.add(Issue{
			Severity: SeverityWarning,
			Code:     CodeUnreachable,
			CardID:   name,
			Message:  fmt.Sprintf("card %s cannot be reached from any entry point", name),
		})
	}
}

func (a *analyzer) checkCycles() {
	for _, component := range topo.TarjanSCC(a.g) {
		if len(component) < 2 {
			continue
		}
		cycle := a.sortedNames(component)
		a.report.Cycles = append(a.report.Cycles, cycle)
		a.add(Issue{
			Severity: SeverityInfo,
			Code:     CodeCycle,
			CardID:   cycle[0],
			Message:  fmt.Sprintf("cards %v form a cycle", cycle),
		})
	}
	sort.Slice(a.report.Cycles, func(i, j int) bool {
		return a.ids[a.report.Cycles[i][0]] < a.ids[a.report.Cycles[j][0]]
	})
}

// sortedNames returns the card ids of nodes in flow order.
func (a *analyzer) sortedNames(nodes []graph.Node) []string {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = a.names[id]
	}
	return names
}
