package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/aretw0/cardflow/pkg/analysis"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/goccy/go-json"
)

// ErrInvalid is returned by Validate when the report holds at least one error.
var ErrInvalid = errors.New("flow has errors")

// Validate analyzes the flow and prints the report as text or JSON.
func Validate(w io.Writer, flow domain.FlowData, jsonMode bool) (analysis.Report, error) {
	report := analysis.Analyze(flow)

	if jsonMode {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return report, err
		}
		fmt.Fprintln(w, string(data))
	} else {
		printReport(w, report, len(flow.Cards))
	}

	if report.HasErrors() {
		return report, ErrInvalid
	}
	return report, nil
}

func printReport(w io.Writer, r analysis.Report, cards int) {
	for _, i := range r.Issues {
		target := i.CardID
		if i.ConnectionID != "" {
			target = i.ConnectionID
		}
		if target != "" {
			target = " (" + target + ")"
		}
		fmt.Fprintf(w, "%s %s%s: %s\n", tui.Severity(string(i.Severity)), i.Code, target, i.Message)
	}
	if len(r.Issues) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%d cards, %d reachable", cards, len(r.Reachable))
	if len(r.Cycles) > 0 {
		parts := make([]string, len(r.Cycles))
		for i, c := range r.Cycles {
			parts[i] = strings.Join(c, " -> ")
		}
		fmt.Fprintf(w, ", cycles: %s", strings.Join(parts, "; "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d errors, %d warnings\n", r.Count(analysis.SeverityError), r.Count(analysis.SeverityWarning))
}
