package cardflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
)

// Runner plays a flow as a conversation over the provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	// StartAt overrides the entry card. Empty means the first initial card.
	StartAt string
}

// ContentRenderer transforms card content before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run reads replies line by line until the conversation ends, the input is
// exhausted or the user types "exit".
func (r *Runner) Run(ctx context.Context, editor *Editor) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}

	session, err := editor.Simulate(ctx)
	if err != nil {
		return err
	}
	if r.StartAt != "" {
		if err := session.StartAt(r.StartAt); err != nil {
			return err
		}
	}

	lines := bufio.NewReader(r.Input)
	r.show(session.Current())

	for !session.Ended() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var labels []string
		for _, o := range session.Options() {
			if o != "" {
				labels = append(labels, o)
			}
		}
		if len(labels) > 0 {
			fmt.Fprintf(r.Output, "(%s)\n", strings.Join(labels, " | "))
		}
		fmt.Fprint(r.Output, "> ")

		text, err := lines.ReadString('\n')
		input := strings.TrimSpace(text)
		if err != nil && (err != io.EOF || input == "") {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}

		res, err := session.Reply(input)
		if err != nil {
			return err
		}
		if !res.Matched {
			fmt.Fprintln(r.Output, "Sorry, I did not understand. Please choose one of the options.")
			continue
		}
		r.show(res.Card)
	}

	fmt.Fprintln(r.Output, "End of conversation.")
	return nil
}

func (r *Runner) show(card domain.Card) {
	text := card.Content
	if text == "" {
		text = card.Title
	}
	if r.Renderer != nil {
		if rendered, err := r.Renderer(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(text))
}
