package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/atlas/internal/logging"
	"github.com/aretw0/atlas/internal/presentation/graph"
	"github.com/aretw0/atlas/pkg/validator"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/ports"
	"github.com/aretw0/atlas/pkg/report"
	"github.com/aretw0/atlas/pkg/visitor"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 8 << 20

// Server serves a narrative document over HTTP.
type Server struct {
	Source        ports.DocumentSource
	Metrics       *Metrics
	Logger        *slog.Logger
	ValidatorOpts []validator.Option
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// WithMetrics exposes m on /metrics and records requests in it.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.Metrics = m }
}

// WithValidatorOptions adds audit checks to /validate and /report.
func WithValidatorOptions(opts ...validator.Option) Option {
	return func(s *Server) { s.ValidatorOpts = append(s.ValidatorOpts, opts...) }
}

// NewHandler creates a new HTTP handler for the document source.
func NewHandler(src ports.DocumentSource, opts ...Option) http.Handler {
	server := &Server{Source: src}
	for _, opt := range opts {
		opt(server)
	}
	if server.Logger == nil {
		server.Logger = logging.NewNop()
	}
	if server.Metrics == nil {
		server.Metrics = NewMetrics()
	}

	r := chi.NewRouter()
	r.Use(server.Metrics.instrument)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/document", server.GetDocument)
	r.Get("/nodes", server.ListNodes)
	r.Get("/nodes/{id}", server.GetNode)
	r.Get("/report", server.GetReport)
	r.Get("/graph", server.GetGraph)
	r.Post("/validate", server.Validate)
	r.Post("/visit", server.Visit)
	r.Method(http.MethodGet, "/metrics", server.Metrics.Handler())

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"title":       doc.Meta.Title,
		"version":     doc.Meta.Version,
		"updated_utc": doc.Meta.UpdatedUTC,
		"root_id":     doc.RootID,
		"total_nodes": len(doc.Nodes),
	})
}

// GetDocument handles GET /document.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

type nodeEntry struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Category domain.Category `json:"category"`
	Choices  int             `json:"choices"`
}

// ListNodes handles GET /nodes.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	out := make([]nodeEntry, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		out = append(out, nodeEntry{ID: n.ID, Title: n.Title, Category: n.EffectiveCategory(), Choices: len(n.Choices)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetNode handles GET /nodes/{id}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	n, found := doc.Node(id)
	if !found {
		s.writeError(w, http.StatusNotFound, &domain.UnknownIDError{ID: id})
		return
	}
	s.writeJSON(w, http.StatusOK, n)
}

// GetReport handles GET /report.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	rep := validator.Validate(doc, s.ValidatorOpts...)
	s.Metrics.ObserveReport(rep)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"summary":    report.Summarize(doc),
		"validation": rep.View(),
	})
}

// GetGraph handles GET /graph and returns Mermaid source.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	rep := validator.Validate(doc)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(doc, &graph.GraphOverlay{Unreachable: rep.Unreachable()}))
}

// Validate handles POST /validate. The body is a document; the response is
// the validation view, with 422 when a fatal violation was found.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := decodeBody(r, &doc); err != nil {
		s.Logger.Warn("Validate: Invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	rep := validator.Validate(&doc, s.ValidatorOpts...)
	s.Metrics.ObserveReport(rep)

	status := http.StatusOK
	if !rep.OK() {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, rep.View())
}

// VisitRequest starts a walk (nil State) or advances one by ChoiceID.
type VisitRequest struct {
	State    *visitor.State `json:"state,omitempty"`
	ChoiceID string         `json:"choice_id,omitempty"`
}

// VisitResponse is the walk state after the request.
type VisitResponse struct {
	State     visitor.State   `json:"state"`
	Node      domain.Node     `json:"node"`
	Available []domain.Choice `json:"available"`
	Terminal  bool            `json:"terminal"`
}

// Visit handles POST /visit.
func (s *Server) Visit(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	var req VisitRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		state visitor.State
		err   error
	)
	if req.State == nil {
		state, err = visitor.Start(doc)
	} else {
		state, err = visitor.Select(doc, *req.State, req.ChoiceID)
	}
	if err != nil {
		s.writeError(w, visitStatus(err), err)
		return
	}

	node, _ := doc.Node(state.Current)
	s.writeJSON(w, http.StatusOK, VisitResponse{
		State:     state,
		Node:      node,
		Available: visitor.Available(doc, node, state),
		Terminal:  visitor.IsTerminal(node),
	})
}

func visitStatus(err error) int {
	var (
		unavailable *visitor.ChoiceUnavailableError
		tokens      *visitor.InsufficientTokensError
		unknown     *domain.UnknownIDError
	)
	switch {
	case errors.Is(err, visitor.ErrTerminal), errors.As(err, &unavailable), errors.As(err, &tokens):
		return http.StatusConflict
	case errors.As(err, &unknown):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) document(w http.ResponseWriter, r *http.Request) (*domain.Document, bool) {
	doc, err := s.Source.Document(r.Context())
	if err != nil {
		s.Logger.Error("Document load failed", "err", err)
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("document unavailable: %w", err))
		return nil, false
	}
	return doc, true
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
