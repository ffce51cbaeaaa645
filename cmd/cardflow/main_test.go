package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/cardflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowJSON = `{
  "cards": [
    {"id": "start", "type": "initial", "title": "Welcome", "content": "Hello!", "outputPorts": [{"id": "o1", "label": "yes"}]},
    {"id": "bye", "type": "end", "title": "Goodbye"}
  ],
  "connections": [
    {"id": "c1", "start": "start", "end": "bye", "sourceHandle": "o1", "sourcePortLabel": "yes"}
  ]
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--store", "memory"))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFlow(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(flowJSON), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cardflow version "+cardflow.Version+"\n", out)
}

func TestConvertCommand(t *testing.T) {
	in := writeFlow(t, "flow.json")
	dst := filepath.Join(t.TempDir(), "flow.yaml")

	_, err := execute(t, "convert", in, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cards:")
	assert.Contains(t, string(data), "title: Welcome")
}

func TestGraphCommand(t *testing.T) {
	in := writeFlow(t, "flow.json")

	out, err := execute(t, "graph", in, "--format", "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"), out)
	assert.Contains(t, out, "Welcome")
}

func TestScriptCommand(t *testing.T) {
	in := writeFlow(t, "flow.json")
	dst := filepath.Join(t.TempDir(), "script.md")

	_, err := execute(t, "script", "--input", in, "--output", dst, "--render=false")
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Welcome")
	assert.Contains(t, string(data), "Goodbye")
}

func TestValidateCommand(t *testing.T) {
	in := writeFlow(t, "flow.json")

	out, err := execute(t, "validate", in)
	require.NoError(t, err)
	assert.Contains(t, out, "2 cards, 2 reachable")
}
