package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	once   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It works like signal.NotifyContext but keeps the signal for the exit message.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.once.Do(func() { signal.Stop(sc.sigCh) })
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger builds the command logger. Debug forces the debug level; otherwise
// level is parsed ("info" when empty or invalid).
func CreateLogger(level string, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return logging.New(l)
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// DebugHooks logs every editor lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	flow := func(_ context.Context, e *domain.FlowEvent) {
		logger.Debug("Flow event", "type", e.Type, "source", e.Source, "cards", e.Cards, "connections", e.Connections, "err", e.Error)
	}
	return domain.LifecycleHooks{
		OnFlowLoaded:   flow,
		OnFlowSaved:    flow,
		OnImportFailed: flow,
		OnScriptGenerated: func(_ context.Context, e *domain.ScriptEvent) {
			logger.Debug("Script generated",
				"cards", e.Cards,
				"visited", e.Visited,
				"cycles", e.Cycles,
				"dangling", e.Dangling,
				"duration", e.Duration,
			)
		},
	}
}

// ChainHooks calls every non-nil hook of each set in order.
func ChainHooks(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	flow := func(pick func(domain.LifecycleHooks) func(context.Context, *domain.FlowEvent)) func(context.Context, *domain.FlowEvent) {
		return func(ctx context.Context, e *domain.FlowEvent) {
			for _, s := range sets {
				if h := pick(s); h != nil {
					h(ctx, e)
				}
			}
		}
	}
	return domain.LifecycleHooks{
		OnFlowLoaded:   flow(func(h domain.LifecycleHooks) func(context.Context, *domain.FlowEvent) { return h.OnFlowLoaded }),
		OnFlowSaved:    flow(func(h domain.LifecycleHooks) func(context.Context, *domain.FlowEvent) { return h.OnFlowSaved }),
		OnImportFailed: flow(func(h domain.LifecycleHooks) func(context.Context, *domain.FlowEvent) { return h.OnImportFailed }),
		OnScriptGenerated: func(ctx context.Context, e *domain.ScriptEvent) {
			for _, s := range sets {
				if s.OnScriptGenerated != nil {
					s.OnScriptGenerated(ctx, e)
				}
			}
		},
	}
}

var errInterrupted = errors.New("interrupted")

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

// NewInterruptibleReader returns a reader that fails once cancel is closed.
func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{base: base, cancel: cancel}
}

func (r *InterruptibleReader) Read(p []byte) (int, error) {
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	n, err := r.base.Read(p)

	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, errInterrupted) || errors.Is(err, io.EOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
