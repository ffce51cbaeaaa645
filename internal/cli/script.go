package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/aretw0/cardflow/pkg/adapters/file"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/script"
)

// ScriptOptions configures the script command.
type ScriptOptions struct {
	Input  string // flow file; empty uses the stored flow
	Output string // destination file; empty or "-" writes to stdout
	Render bool   // render markdown for the terminal when writing to stdout
	Save   bool   // store the imported flow before generating
}

func (o ScriptOptions) toStdout() bool {
	return o.Output == "" || o.Output == "-"
}

// GenerateScript loads the flow, renders its script and writes it out.
// An archive failure is logged; the script is still written.
func GenerateScript(ctx context.Context, editor *cardflow.Editor, opts ScriptOptions, stdout io.Writer, logger *slog.Logger) (script.Report, error) {
	if err := LoadInto(ctx, editor, opts.Input); err != nil {
		return script.Report{}, err
	}
	if opts.Save && opts.Input != "" {
		if err := editor.Save(ctx); err != nil {
			return script.Report{}, err
		}
	}

	report, err := editor.GenerateScript(ctx)
	if err != nil {
		logger.Warn("script not archived", "error", err)
	}

	text := report.Text
	if opts.Render && opts.toStdout() {
		if rendered, err := tui.NewRenderer()(text); err == nil {
			text = rendered
		}
	}
	if err := WriteOutput(stdout, opts.Output, []byte(text)); err != nil {
		return report, fmt.Errorf("failed to write script: %w", err)
	}
	return report, nil
}

// RunWatch regenerates the script every time the flow changes, until ctx is done.
// With an input file the file is watched; otherwise the store must support watching.
func RunWatch(ctx context.Context, editor *cardflow.Editor, opts ScriptOptions, stdout, stderr io.Writer, logger *slog.Logger) error {
	var (
		changes <-chan struct{}
		err     error
	)
	if opts.Input != "" {
		changes, err = file.WatchFile(ctx, opts.Input, file.DefaultDebounce)
	} else {
		changes, err = editor.Watch(ctx)
	}
	if err != nil {
		return err
	}

	var previous domain.FlowData
	regenerate := func() {
		report, err := GenerateScript(ctx, editor, opts, stdout, logger)
		if err != nil {
			logger.Error("script generation failed", "error", err)
			printSystemMessage(stderr, "Generation failed: %v", err)
			return
		}
		current := editor.Snapshot(ctx)
		diff := domain.Diff(previous, current)
		previous = current
		logger.Debug("flow changed", "diff", diff.String())
		printSystemMessage(stderr, "Script updated (%d cards, %d cycles; %s).", report.Stats.Cards, report.Stats.Cycles, diff)
	}

	regenerate()
	printSystemMessage(stderr, "Waiting for changes...")
	for range changes {
		logger.Info("Change detected, regenerating script")
		regenerate()
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
