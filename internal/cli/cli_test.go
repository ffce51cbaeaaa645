package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cardflow/internal/config"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowJSON = `{
  "cards": [
    {"id": "c1", "type": "initial", "title": "Hello", "content": "Welcome!", "position": {"x": 100, "y": 300}},
    {"id": "c2", "type": "end", "title": "Bye", "position": {"x": 400, "y": 300}}
  ],
  "connections": [
    {"id": "e1", "start": "c1", "end": "c2", "sourcePortLabel": "yes"}
  ]
}`

func writeFlow(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		cfg         config.StoreConfig
		withArchive bool
	}{
		{"Memory", config.StoreConfig{Backend: config.BackendMemory}, false},
		{"File", config.StoreConfig{Backend: config.BackendFile, Dir: filepath.Join(dir, "files")}, false},
		{"SQLite", config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "flows.db")}, false},
		{"Loam", config.StoreConfig{Backend: config.BackendLoam, LoamPath: filepath.Join(dir, "repo")}, true},
		{"Redis", config.StoreConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr(), RedisPrefix: "test:"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := OpenBackend(ctx, tt.cfg)
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, tt.withArchive, b.Archive != nil)
			require.NoError(t, b.Slots.Put(ctx, ports.SlotFlow, []byte(`{}`)))
			got, err := b.Slots.Get(ctx, ports.SlotFlow)
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(got))
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := OpenBackend(ctx, config.StoreConfig{Backend: "etcd"})
		assert.Error(t, err)
	})

	t.Run("Encrypted", func(t *testing.T) {
		key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
		cfg := config.StoreConfig{Backend: config.BackendFile, Dir: filepath.Join(dir, "secure"), EncryptionKey: key}
		b, err := OpenBackend(ctx, cfg)
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.Slots.Put(ctx, ports.SlotProfile, []byte(`{"name":"Ana"}`)))
		got, err := b.Slots.Get(ctx, ports.SlotProfile)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Ana"}`, string(got))

		plain, err := OpenBackend(ctx, config.StoreConfig{Backend: config.BackendFile, Dir: cfg.Dir})
		require.NoError(t, err)
		raw, err := plain.Slots.Get(ctx, ports.SlotProfile)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "Ana")
	})

	t.Run("Bad Encryption Key", func(t *testing.T) {
		cfg := config.StoreConfig{Backend: config.BackendMemory, EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}
		_, err := OpenBackend(ctx, cfg)
		assert.Error(t, err)
	})

	t.Run("Redis Unreachable", func(t *testing.T) {
		_, err := OpenBackend(ctx, config.StoreConfig{Backend: config.BackendRedis, RedisAddr: "127.0.0.1:1"})
		assert.Error(t, err)
	})
}

func TestGenerateScript_FileToFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := writeFlow(t, dir, "flow.json", flowJSON)
	out := filepath.Join(dir, "script.md")

	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.BackendMemory}
	editor, backend, err := NewEditor(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer backend.Close()
	defer editor.Close()

	report, err := GenerateScript(ctx, editor, ScriptOptions{Input: in, Output: out, Save: true}, &bytes.Buffer{}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Visited)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Entry point 1: Hello (id: c1)")
	assert.Contains(t, string(data), "go to card 'Bye' (id: c2)")

	_, err = backend.Slots.Get(ctx, ports.SlotFlow)
	assert.NoError(t, err, "--save stores the imported flow")
}

func TestGenerateScript_StoredFlowToStdout(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.BackendMemory}
	editor, backend, err := NewEditor(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer backend.Close()
	defer editor.Close()

	_, err = GenerateScript(ctx, editor, ScriptOptions{}, &bytes.Buffer{}, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)

	require.NoError(t, backend.Slots.Put(ctx, ports.SlotFlow, []byte(flowJSON)))
	var stdout bytes.Buffer
	_, err = GenerateScript(ctx, editor, ScriptOptions{Output: "-"}, &stdout, logging.NewNop())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "# Assistant profile"))
}

func TestRunWatch_RegeneratesOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	in := writeFlow(t, dir, "flow.json", flowJSON)
	out := filepath.Join(dir, "script.md")

	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.BackendMemory}
	editor, backend, err := NewEditor(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer backend.Close()
	defer editor.Close()

	done := make(chan error, 1)
	go func() {
		done <- RunWatch(ctx, editor, ScriptOptions{Input: in, Output: out}, &bytes.Buffer{}, &bytes.Buffer{}, logging.NewNop())
	}()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(data), "Hello")
	}, 5*time.Second, 50*time.Millisecond)

	changed := strings.Replace(flowJSON, `"title": "Hello"`, `"title": "Howdy"`, 1)
	require.Eventually(t, func() bool {
		// rewrite until the watcher has picked up the change
		_ = os.WriteFile(in, []byte(changed), 0644)
		data, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(data), "Howdy")
	}, 5*time.Second, 300*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid Flow", func(t *testing.T) {
		var buf bytes.Buffer
		flow, err := ReadFlow(writeFlow(t, t.TempDir(), "flow.json", flowJSON))
		require.NoError(t, err)

		_, err = Validate(&buf, flow, false)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "2 cards, 2 reachable")
		assert.Contains(t, buf.String(), "0 errors, 0 warnings")
	})

	t.Run("Errors Fail", func(t *testing.T) {
		var buf bytes.Buffer
		flow := domain.FlowData{Cards: []domain.Card{
			{ID: "a", Type: domain.CardInitial},
			{ID: "a", Type: domain.CardMessage},
		}}
		_, err := Validate(&buf, flow, false)
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, buf.String(), "duplicate_card_id (a)")
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		flow := domain.FlowData{Cards: []domain.Card{{ID: "a", Type: domain.CardMessage}}}
		_, err := Validate(&buf, flow, true)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"code": "no_entry_point"`)
	})
}

func TestRunSimulate(t *testing.T) {
	dir := t.TempDir()
	in := writeFlow(t, dir, "flow.yaml", `
cards:
  - id: c1
    type: initial
    title: Hello
    content: Welcome!
  - id: c2
    type: end
    title: Bye
connections:
  - id: e1
    start: c1
    end: c2
    sourcePortLabel: "yes"
`)

	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.BackendMemory}
	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	editor, backend, err := NewEditor(sc, cfg, logging.NewNop())
	require.NoError(t, err)
	defer backend.Close()
	defer editor.Close()

	var out bytes.Buffer
	err = RunSimulate(sc, editor, SimulateOptions{Input: in}, strings.NewReader("yes\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Welcome!")
	assert.Contains(t, out.String(), "Bye")
	assert.Contains(t, out.String(), "End of conversation.")
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnFlowSaved: func(context.Context, *domain.FlowEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnFlowSaved:       func(context.Context, *domain.FlowEvent) { calls = append(calls, "b") },
		OnScriptGenerated: func(context.Context, *domain.ScriptEvent) { calls = append(calls, "script") },
	}
	h := ChainHooks(a, b, DebugHooks(logging.NewNop()))

	h.OnFlowSaved(context.Background(), &domain.FlowEvent{})
	h.OnFlowLoaded(context.Background(), &domain.FlowEvent{})
	h.OnScriptGenerated(context.Background(), &domain.ScriptEvent{})
	assert.Equal(t, []string{"a", "b", "script"}, calls)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(errInterrupted))
	assert.Error(t, handleExecutionError(assert.AnError))
}
