package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
)

// Overlay contains simulation state to highlight on the chart.
type Overlay struct {
	VisitedCards []string
	CurrentCard  string
}

// GenerateMermaid produces a Mermaid flowchart of a flow.
// Shapes follow the card type:
//   - initial: ((Circle))
//   - end: ([Stadium])
//   - servico, produto: [[Subroutine]]
//   - agendar, confirmacao: [/Parallelogram/]
//   - faq: {Rhombus}
//   - anything else: [Rectangle]
//
// Negative connections are dotted and neutral ones thick.
func GenerateMermaid(flow domain.FlowData, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[string]bool, len(flow.Cards))
	for _, card := range flow.Cards {
		if known[card.ID] {
			continue
		}
		known[card.ID] = true
		opener, closer := shape(card.Type)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(card.ID), opener, label(card), closer)
	}

	for _, conn := range flow.Connections {
		if !known[conn.Start] || !known[conn.End] {
			continue
		}
		intent := escape(conn.IntentLabel())
		var arrow string
		switch conn.Type.Polarity() {
		case domain.ConnectionNegative:
			arrow = fmt.Sprintf("-. \"%s\" .->", intent)
		case domain.ConnectionNeutral:
			arrow = fmt.Sprintf("== \"%s\" ==>", intent)
		default:
			arrow = fmt.Sprintf("-- \"%s\" -->", intent)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(conn.Start), arrow, sanitizeMermaidID(conn.End))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedCards {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && known[id] && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentCard != "" && known[overlay.CurrentCard] {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentCard))
		}
	}

	return sb.String()
}

func shape(t domain.CardType) (string, string) {
	switch t {
	case domain.CardInitial:
		return "((", "))"
	case domain.CardEnd:
		return "([", "])"
	case domain.CardService, domain.CardProduct:
		return "[[", "]]"
	case domain.CardScheduling, domain.CardConfirmation:
		return "[/", "/]"
	case domain.CardFAQ:
		return "{", "}"
	default:
		return "[", "]"
	}
}

func label(c domain.Card) string {
	if c.Title == "" {
		return escape(c.ID)
	}
	return escape(c.Title)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.Join(strings.Fields(s), " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
