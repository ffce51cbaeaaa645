// Package http exposes an Editor over a JSON API with server-sent profile updates.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	mermaid "github.com/aretw0/cardflow/internal/presentation/graph"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/exchange"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/cardflow/pkg/profile"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// maxBodySize bounds request bodies (flows with embedded files can be large).
const maxBodySize = 10 << 20

// Server serves one Editor.
type Server struct {
	Editor  *cardflow.Editor
	Streams *StreamManager

	metrics     *observability.Metrics
	logger      *slog.Logger
	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes m on /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a Server and bridges profile updates to SSE clients.
// Call Close to detach it from the profile store.
func NewServer(editor *cardflow.Editor, opts ...Option) *Server {
	s := &Server{Editor: editor, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	s.unsubscribe = editor.Profiles().Subscribe(func(ev profile.Event) {
		data, err := json.Marshal(ev.Profile)
		if err != nil {
			s.logger.Error("failed to encode profile event", "error", err)
			return
		}
		s.Streams.Broadcast(Event{Name: ev.Name, Data: string(data)})
	})
	return s
}

// Close stops forwarding profile updates.
func (s *Server) Close() {
	s.unsubscribe()
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	r.Route("/flow", func(r chi.Router) {
		r.Get("/", s.GetFlow)
		r.Put("/", s.PutFlow)
		r.Post("/import", s.ImportFlow)
		r.Get("/export", s.ExportFlow)
		r.Post("/save", s.SaveFlow)
	})
	r.Post("/cards", s.AddCard)
	r.Delete("/cards/{id}", s.RemoveCard)
	r.Post("/connections", s.Connect)
	r.Delete("/connections/{id}", s.Disconnect)

	r.Get("/graph", s.GetGraph)
	r.Get("/script", s.GetScript)
	r.Get("/scripts", s.ListScripts)
	r.Get("/analysis", s.GetAnalysis)
	r.Get("/profile", s.GetProfile)
	r.Put("/profile", s.PutProfile)
	r.Get("/events", s.SubscribeEvents)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <title>cardflow API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => { window.ui = SwaggerUIBundle({ url: '/openapi.yaml', dom_id: '#swagger-ui' }); };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Error("OpenAPI spec unavailable", "error", err)
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "cardflow-http",
		"version":     strings.TrimSpace(cardflow.Version),
		"api_version": apiVersion,
	})
}

// GetFlow handles GET /flow.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Editor.Snapshot(r.Context()))
}

// PutFlow handles PUT /flow: replace the canvas and save it.
func (s *Server) PutFlow(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := s.Editor.Import(r.Context(), body, exchange.FormatJSON); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Editor.Save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.summary())
}

// ImportFlow handles POST /flow/import?format=json|yaml.
func (s *Server) ImportFlow(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := s.Editor.Import(r.Context(), body, format); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.summary())
}

// ExportFlow handles GET /flow/export?format=json|yaml.
func (s *Server) ExportFlow(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := s.Editor.Export(r.Context(), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := exchange.FileName("flow", string(format), time.Now())
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

// SaveFlow handles POST /flow/save.
func (s *Server) SaveFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.Save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCard handles POST /cards.
func (s *Server) AddCard(w http.ResponseWriter, r *http.Request) {
	var card domain.Card
	if !s.decode(w, r, &card) {
		return
	}
	created, err := s.Editor.AddCard(card)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// RemoveCard handles DELETE /cards/{id}.
func (s *Server) RemoveCard(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.RemoveCard(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type connectRequest struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
	Label        string `json:"label"`
}

// Connect handles POST /connections.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !s.decode(w, r, &req) {
		return
	}
	edge, err := s.Editor.Connect(req.Source, req.Target, req.SourceHandle, req.Label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, edge)
}

// Disconnect handles DELETE /connections/{id}.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.Disconnect(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /graph?format=json|mermaid.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, mermaid.GenerateMermaid(s.Editor.Snapshot(r.Context()), nil))
		return
	}
	s.writeJSON(w, http.StatusOK, s.Editor.Graph())
}

// GetScript handles GET /script?format=text|json.
func (s *Server) GetScript(w http.ResponseWriter, r *http.Request) {
	report, err := s.Editor.GenerateScript(r.Context())
	if err != nil {
		// the script is still valid when only archiving failed
		s.logger.Warn("script not archived", "error", err)
	}
	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, report)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, report.Text)
}

// ListScripts handles GET /scripts.
func (s *Server) ListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := s.Editor.Scripts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if scripts == nil {
		scripts = []ports.ArchivedScript{}
	}
	s.writeJSON(w, http.StatusOK, scripts)
}

// GetAnalysis handles GET /analysis.
func (s *Server) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Editor.Analyze(r.Context()))
}

// GetProfile handles GET /profile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Editor.Profile(r.Context()))
}

// PutProfile handles PUT /profile.
func (s *Server) PutProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.AssistantProfile
	if !s.decode(w, r, &p) {
		return
	}
	saved, err := s.Editor.SetProfile(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()
	s.logger.Info("SSE client connected")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) summary() map[string]int {
	g := s.Editor.Graph()
	return map[string]int{"cards": len(g.Nodes), "connections": len(g.Edges) + len(g.Dangling)}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeProblem(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		s.writeProblem(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeProblem(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]any{
		"status": status,
		"title":  http.StatusText(status),
		"detail": detail,
	})
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, exchange.ErrInvalidFlow):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, domain.ErrConnectionNotFound),
		errors.Is(err, domain.ErrPortNotFound),
		errors.Is(err, domain.ErrNoArchive),
		errors.Is(err, domain.ErrSlotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateCard),
		errors.Is(err, domain.ErrDuplicateHandle),
		errors.Is(err, domain.ErrMinimumPorts):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeProblem(w, status, err.Error())
}

func requestFormat(r *http.Request) (exchange.Format, error) {
	switch f := r.URL.Query().Get("format"); f {
	case "", "json":
		return exchange.FormatJSON, nil
	case "yaml", "yml":
		return exchange.FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", f)
	}
}

func contentType(f exchange.Format) string {
	if f == exchange.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}
