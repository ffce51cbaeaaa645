package http

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/internal/testutils"
	"github.com/aretw0/cardflow/pkg/adapters/loam"
	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowBody = `{
  "cards": [
    {"id": "start", "type": "initial", "title": "Welcome", "position": {"x": 100, "y": 300},
     "outputPorts": [{"id": "o1", "label": "yes"}]},
    {"id": "bye", "type": "end", "title": "Goodbye", "position": {"x": 400, "y": 300}}
  ],
  "connections": [
    {"id": "c1", "start": "start", "end": "bye", "sourceHandle": "o1", "sourcePortLabel": "yes"}
  ]
}`

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	editor := cardflow.New(cardflow.WithStore(memory.NewStore()))
	srv := NewServer(editor, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		_ = editor.Close()
	})
	return srv, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestSpec_Loads(t *testing.T) {
	swagger, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, swagger.Paths.Find("/flow"))
	assert.NotNil(t, swagger.Paths.Find("/script"))
}

func TestServer_HealthAndInfo(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	_, body = do(t, http.MethodGet, ts.URL+"/info", "")
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &info))
	assert.Equal(t, "cardflow-http", info["app"])
	assert.Equal(t, cardflow.Version, info["version"])
	assert.NotEqual(t, "unknown", info["api_version"])
}

func TestServer_FlowLifecycle(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, body := do(t, http.MethodPut, ts.URL+"/flow", flowBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"cards":2,"connections":1}`, body)

	resp, body = do(t, http.MethodGet, ts.URL+"/script?format=json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome")

	resp, body = do(t, http.MethodGet, ts.URL+"/graph?format=mermaid", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "graph"), body)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/connections/c1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, srv.Editor.Graph().Edges)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/cards/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ImportRejectsInvalid(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/flow/import", `{"cards": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	assert.Empty(t, srv.Editor.Graph().Nodes)

	resp, _ = do(t, http.MethodPost, ts.URL+"/flow/import?format=xml", flowBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_ExportYAML(t *testing.T) {
	_, ts := newTestServer(t)
	resp, _ := do(t, http.MethodPost, ts.URL+"/flow/import", flowBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/flow/export?format=yaml", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cardflow-flow-")
	assert.Contains(t, body, "cards:")
}

func TestServer_CardsAndConnections(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/cards", `{"id":"a","type":"initial","title":"A"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	resp, _ = do(t, http.MethodPost, ts.URL+"/cards", `{"id":"b","type":"end","title":"B"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/cards", `{"id":"a"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	req := `{"source":"a","target":"b","sourceHandle":"o1"}`
	resp, body = do(t, http.MethodPost, ts.URL+"/connections", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var edge domain.Edge
	require.NoError(t, json.Unmarshal([]byte(body), &edge))
	assert.Equal(t, "a", edge.Source)

	resp, _ = do(t, http.MethodPost, ts.URL+"/connections", req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/connections", `{"source":"a","target":"b","sourceHandle":"o9"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/connections", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_ProfileEvents(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())
	require.Eventually(t, func() bool { return srv.Streams.Count() == 1 }, time.Second, 10*time.Millisecond)

	put, body := do(t, http.MethodPut, ts.URL+"/profile", `{"name":"Ana","profession":"Dentist"}`)
	require.Equal(t, http.StatusOK, put.StatusCode, body)

	var event string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "event: assistant") {
			event = lines.Text()
			require.True(t, lines.Scan())
			assert.Contains(t, lines.Text(), `"name":"Ana"`)
			break
		}
	}
	assert.Equal(t, "event: assistant-profile-updated", event)

	_, body = do(t, http.MethodGet, ts.URL+"/profile", "")
	assert.Contains(t, body, "Dentist")
}

func TestServer_Metrics(t *testing.T) {
	m := observability.NewMetrics()
	_, ts := newTestServer(t, WithMetrics(m))

	resp, _ := do(t, http.MethodGet, ts.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)
	resp, _ := do(t, http.MethodOptions, ts.URL+"/flow", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, cancel := sm.Subscribe()
	for i := 0; i < 20; i++ {
		sm.Broadcast(Event{Name: "tick"})
	}
	assert.Len(t, ch, 10)
	cancel()
	cancel()
	assert.Zero(t, sm.Count())
}

func TestServer_Scripts(t *testing.T) {
	t.Run("Without Archive", func(t *testing.T) {
		_, ts := newTestServer(t)
		resp, _ := do(t, http.MethodGet, ts.URL+"/scripts", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Archived Script Text", func(t *testing.T) {
		dir, repo := testutils.SetupTestRepo(t)
		store := loam.New(repo, dir)
		editor := cardflow.New(cardflow.WithStore(store), cardflow.WithArchive(store))
		srv := NewServer(editor)
		ts := httptest.NewServer(srv.Handler())
		t.Cleanup(func() {
			ts.Close()
			srv.Close()
			_ = editor.Close()
		})

		resp, _ := do(t, http.MethodPut, ts.URL+"/flow", flowBody)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = do(t, http.MethodGet, ts.URL+"/script", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := do(t, http.MethodGet, ts.URL+"/scripts", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var scripts []struct {
			Name  string `json:"name"`
			Text  string `json:"text"`
			Cards int    `json:"cards"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &scripts))
		require.Len(t, scripts, 1)
		assert.Equal(t, 2, scripts[0].Cards)
		assert.Contains(t, scripts[0].Text, "Welcome")
	})
}
