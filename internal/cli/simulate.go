package cli

import (
	"io"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/presentation/tui"
)

// SimulateOptions configures the simulate command.
type SimulateOptions struct {
	Input   string // flow file; empty uses the stored flow
	StartAt string
	Render  bool
}

// RunSimulate plays the flow as a conversation on the given IO until it ends or the
// context behind sc is cancelled.
func RunSimulate(sc *SignalContext, editor *cardflow.Editor, opts SimulateOptions, in io.Reader, out io.Writer) error {
	if err := LoadInto(sc, editor, opts.Input); err != nil {
		return err
	}

	r := cardflow.NewRunner()
	r.Input = NewInterruptibleReader(in, sc.Done())
	r.Output = out
	r.StartAt = opts.StartAt
	if opts.Render {
		r.Renderer = tui.NewRenderer()
	}

	err := handleExecutionError(r.Run(sc, editor))
	if sc.Signal() != nil {
		printSystemMessage(out, "Interrupted.")
	}
	return err
}
