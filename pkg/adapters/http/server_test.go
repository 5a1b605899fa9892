package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/atlas/pkg/validator"
	"github.com/aretw0/atlas/pkg/adapters/memory"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() *domain.Document {
	return &domain.Document{
		Meta:   domain.Meta{Title: "Atlas", Version: "1.0.0", TotalNodes: 3, Endings: 1},
		RootID: "start",
		Tokens: domain.Tokens{Chrono: domain.Chrono{Start: 2}},
		Nodes: []domain.Node{
			{ID: "start", Title: "Start", Body: "Go", Choices: []domain.Choice{
				{ID: "key", Label: "Take key", NextID: "door", Grants: []string{"key"}},
				{ID: "skip", Label: "Skip", NextID: "door"},
			}},
			{ID: "door", Title: "Door", Body: "Locked", Choices: []domain.Choice{
				{ID: "open", Label: "Open", NextID: "ending_a", Requires: []string{"key"}, Cost: 1},
			}},
			{ID: "ending_a", Title: "End", Body: "Done", Choices: []domain.Choice{}},
		},
	}
}

func newTestServer(t *testing.T) (http.Handler, *Metrics) {
	t.Helper()
	m := NewMetrics()
	return NewHandler(memory.NewStore(testDoc()), WithMetrics(m)), m
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetDocumentAndNodes(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, "GET", "/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "start", doc.RootID)

	w = do(t, h, "GET", "/nodes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []nodeEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, domain.CategoryEnding, entries[2].Category)

	w = do(t, h, "GET", "/nodes/door", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"Locked\"")

	w = do(t, h, "GET", "/nodes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "missing")
}

func TestValidate(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, "POST", "/validate", testDoc())
	require.Equal(t, http.StatusOK, w.Code)
	var view validator.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.OK)
	assert.Equal(t, 3, view.Tally.Total)

	broken := testDoc()
	broken.Nodes[1].Choices[0].NextID = "nowhere"
	w = do(t, h, "POST", "/validate", broken)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.False(t, view.OK)
	kinds := make([]domain.Kind, 0, len(view.Violations))
	for _, v := range view.Violations {
		kinds = append(kinds, v.Kind)
	}
	assert.Contains(t, kinds, domain.KindDanglingReference)

	req := httptest.NewRequest("POST", "/validate", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisit_GatedChoice(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, "POST", "/visit", VisitRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	var resp VisitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "start", resp.State.Current)
	assert.Equal(t, 2, resp.State.Tokens)

	// Skipping the key leaves the door locked.
	skipped := resp.State
	w = do(t, h, "POST", "/visit", VisitRequest{State: &skipped, ChoiceID: "skip"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Available)

	w = do(t, h, "POST", "/visit", VisitRequest{State: &resp.State, ChoiceID: "open"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Taking the key opens it.
	w = do(t, h, "POST", "/visit", VisitRequest{State: &skipped, ChoiceID: "key"})
	require.Equal(t, http.StatusOK, w.Code)
	var keyed VisitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &keyed))
	require.Len(t, keyed.Available, 1)

	w = do(t, h, "POST", "/visit", VisitRequest{State: &keyed.State, ChoiceID: "open"})
	require.Equal(t, http.StatusOK, w.Code)
	var end VisitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &end))
	assert.True(t, end.Terminal)
	assert.Equal(t, 1, end.State.Tokens)
	assert.Equal(t, []string{"start", "door", "ending_a"}, end.State.Path)
}

func TestReportGraphAndMetrics(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, "GET", "/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"summary\"")
	assert.Contains(t, w.Body.String(), "\"validation\"")

	w = do(t, h, "GET", "/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))

	do(t, h, "GET", "/nodes/start", nil)

	w = do(t, h, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `atlas_http_requests_total{code="200",route="/nodes/{id}"} 1`)
	assert.Contains(t, body, `atlas_validations_total{result=`)
}

func TestDocumentUnavailable(t *testing.T) {
	h := NewHandler(memory.NewStore(nil))
	w := do(t, h, "GET", "/document", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)
	w := do(t, h, "OPTIONS", "/validate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
