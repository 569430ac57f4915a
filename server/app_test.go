package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/builder"
	"github.com/meikuraledutech/workflow/editor"
	"github.com/meikuraledutech/workflow/memory"
)

type sessionState struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Nodes        []workflow.Node   `json:"nodes"`
	Edges        []workflow.Edge   `json:"edges"`
	Pan          workflow.Position `json:"pan"`
	Gesture      string            `json:"gesture"`
	SelectedNode string            `json:"selectedNode"`
	SelectedEdge string            `json:"selectedEdge"`
	Fields       []editor.Field    `json:"fields"`
}

func (s sessionState) node(id string) (workflow.Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return workflow.Node{}, false
}

func newTestApp(t *testing.T, store workflow.Store) *fiber.App {
	t.Helper()
	m := builder.NewManager(store, workflow.DefaultTools())
	return newApp(m, store, slog.New(slog.DiscardHandler))
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestSessionLifecycle(t *testing.T) {
	app := newTestApp(t, memory.New())

	code, _ := call(t, app, http.MethodGet, "/sessions/wf", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body := call(t, app, http.MethodPost, "/sessions/wf", nil)
	require.Equal(t, http.StatusCreated, code, string(body))
	st := decode[sessionState](t, body)
	assert.Equal(t, "wf", st.ID)
	assert.Equal(t, "Sales Qualification", st.Name)
	assert.Len(t, st.Nodes, len(workflow.DefaultTemplate("wf").Nodes))
	assert.Equal(t, "idle", st.Gesture)

	code, body = call(t, app, http.MethodPut, "/sessions/wf/name", fiber.Map{"name": "Leads"})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, "Leads", decode[sessionState](t, body).Name)

	code, _ = call(t, app, http.MethodDelete, "/sessions/wf", nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = call(t, app, http.MethodDelete, "/sessions/wf", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNodeAndEdgeRoutes(t *testing.T) {
	app := newTestApp(t, memory.New())
	code, _ := call(t, app, http.MethodPost, "/sessions/wf", nil)
	require.Equal(t, http.StatusCreated, code)

	code, body := call(t, app, http.MethodPost, "/sessions/wf/nodes", fiber.Map{
		"type":     "LLM",
		"position": fiber.Map{"x": 300, "y": 500},
		"config":   fiber.Map{"prompt": "Say hi"},
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	id := decode[map[string]string](t, body)["id"]
	require.NotEmpty(t, id)

	code, _ = call(t, app, http.MethodPost, "/sessions/wf/nodes", fiber.Map{"type": "Webhook"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = call(t, app, http.MethodPost, "/sessions/wf/edges", fiber.Map{"source": "start", "target": id})
	require.Equal(t, http.StatusCreated, code, string(body))
	edgeID := decode[map[string]string](t, body)["id"]
	assert.Equal(t, "edge-start-"+id, edgeID)

	tests := []struct {
		name   string
		source string
		target string
		want   int
	}{
		{"duplicate", "start", id, http.StatusConflict},
		{"into start", id, "start", http.StatusConflict},
		{"out of end", "end", id, http.StatusConflict},
		{"self loop", id, id, http.StatusConflict},
		{"missing node", "start", "ghost", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := call(t, app, http.MethodPost, "/sessions/wf/edges", fiber.Map{"source": tt.source, "target": tt.target})
			assert.Equal(t, tt.want, code)
		})
	}

	code, body = call(t, app, http.MethodPut, "/sessions/wf/edges/"+edgeID+"/label", fiber.Map{"label": "Greet"})
	require.Equal(t, http.StatusOK, code, string(body))

	code, body = call(t, app, http.MethodPut, "/sessions/wf/nodes/"+id+"/config", fiber.Map{"prompt": "Say bye"})
	require.Equal(t, http.StatusOK, code, string(body))
	n, ok := decode[sessionState](t, body).node(id)
	require.True(t, ok)
	assert.Equal(t, workflow.LLMConfig{Prompt: "Say bye"}, n.Config)

	code, body = call(t, app, http.MethodPut, "/sessions/wf/nodes/"+id+"/details", fiber.Map{"title": "Greeter", "description": "Greets"})
	require.Equal(t, http.StatusOK, code, string(body))
	n, _ = decode[sessionState](t, body).node(id)
	assert.Equal(t, "Greeter", n.Title)

	code, body = call(t, app, http.MethodDelete, "/sessions/wf/nodes/"+id, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	st := decode[sessionState](t, body)
	for _, e := range st.Edges {
		assert.NotEqual(t, id, e.Target, "edges of a deleted node go with it")
	}

	code, _ = call(t, app, http.MethodDelete, "/sessions/wf/nodes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = call(t, app, http.MethodDelete, "/sessions/wf/edges/"+edgeID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPointerDragMovesNode(t *testing.T) {
	app := newTestApp(t, memory.New())
	code, body := call(t, app, http.MethodPost, "/sessions/wf", nil)
	require.Equal(t, http.StatusCreated, code)
	start, ok := decode[sessionState](t, body).node("start")
	require.True(t, ok)

	grab := workflow.Position{X: start.Position.X + 80, Y: start.Position.Y + 30}
	steps := []fiber.Map{
		{"type": "down", "x": grab.X, "y": grab.Y},
		{"type": "move", "x": grab.X + 25, "y": grab.Y + 10},
		{"type": "up", "x": grab.X + 50, "y": grab.Y + 20},
	}
	var st sessionState
	for i, s := range steps {
		code, body := call(t, app, http.MethodPost, "/sessions/wf/pointer", s)
		require.Equal(t, http.StatusOK, code, string(body))
		st = decode[sessionState](t, body)
		if i == 0 {
			assert.Equal(t, "dragging", st.Gesture)
		}
	}
	assert.Equal(t, "idle", st.Gesture)
	moved, _ := st.node("start")
	assert.Equal(t, workflow.Position{X: start.Position.X + 50, Y: start.Position.Y + 20}, moved.Position)

	code, _ = call(t, app, http.MethodPost, "/sessions/wf/pointer", fiber.Map{"type": "hover"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDropAndDeleteKey(t *testing.T) {
	app := newTestApp(t, memory.New())
	code, body := call(t, app, http.MethodPost, "/sessions/wf", nil)
	require.Equal(t, http.StatusCreated, code)
	before := len(decode[sessionState](t, body).Nodes)

	code, body = call(t, app, http.MethodPost, "/sessions/wf/drop", fiber.Map{"type": "Data", "x": 100, "y": 600})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Len(t, decode[sessionState](t, body).Nodes, before+1)

	code, _ = call(t, app, http.MethodPost, "/sessions/wf/select", fiber.Map{"edge": "e-crm-end"})
	require.Equal(t, http.StatusOK, code)

	code, body = call(t, app, http.MethodPost, "/sessions/wf/key", fiber.Map{"key": "Delete", "inTextInput": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "e-crm-end", decode[sessionState](t, body).SelectedEdge)

	code, body = call(t, app, http.MethodPost, "/sessions/wf/key", fiber.Map{"key": "Delete"})
	require.Equal(t, http.StatusOK, code)
	st := decode[sessionState](t, body)
	assert.Empty(t, st.SelectedEdge)
	for _, e := range st.Edges {
		assert.NotEqual(t, "e-crm-end", e.ID)
	}

	code, _ = call(t, app, http.MethodPost, "/sessions/wf/select", fiber.Map{"node": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEditorRoutes(t *testing.T) {
	app := newTestApp(t, memory.New())
	code, _ := call(t, app, http.MethodPost, "/sessions/wf", nil)
	require.Equal(t, http.StatusCreated, code)

	code, _ = call(t, app, http.MethodPut, "/sessions/wf/editor", fiber.Map{"field": "prompt", "value": "x"})
	assert.Equal(t, http.StatusConflict, code, "nothing selected")

	code, body := call(t, app, http.MethodPost, "/sessions/wf/select", fiber.Map{"node": "llm-qualify"})
	require.Equal(t, http.StatusOK, code)
	st := decode[sessionState](t, body)
	require.Len(t, st.Fields, 1)
	assert.Equal(t, "prompt", st.Fields[0].Name)

	code, body = call(t, app, http.MethodPut, "/sessions/wf/editor", fiber.Map{"field": "prompt", "value": "Hello"})
	require.Equal(t, http.StatusOK, code, string(body))
	st = decode[sessionState](t, body)
	assert.Equal(t, "Hello", st.Fields[0].Value)
	n, _ := st.node("llm-qualify")
	assert.NotEqual(t, workflow.LLMConfig{Prompt: "Hello"}, n.Config, "drafts wait for blur")

	code, body = call(t, app, http.MethodPost, "/sessions/wf/editor/blur", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	n, _ = decode[sessionState](t, body).node("llm-qualify")
	assert.Equal(t, workflow.LLMConfig{Prompt: "Hello"}, n.Config)

	code, _ = call(t, app, http.MethodPut, "/sessions/wf/editor", fiber.Map{"field": "toolId", "value": "tool-1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, app, http.MethodPost, "/sessions/wf/select", fiber.Map{"node": "tool-update-crm"})
	require.Equal(t, http.StatusOK, code)
	code, body = call(t, app, http.MethodPut, "/sessions/wf/editor", fiber.Map{"field": "toolId", "value": "tool-2"})
	require.Equal(t, http.StatusOK, code, string(body))
	n, _ = decode[sessionState](t, body).node("tool-update-crm")
	assert.Equal(t, workflow.ToolConfig{ToolID: "tool-2", ParameterValues: map[string]string{}}, n.Config)

	code, body = call(t, app, http.MethodPut, "/sessions/wf/editor", fiber.Map{"field": "param:orderId", "value": "{order.id}"})
	require.Equal(t, http.StatusOK, code, string(body))
	n, _ = decode[sessionState](t, body).node("tool-update-crm")
	assert.Equal(t, "{order.id}", n.Config.(workflow.ToolConfig).ParameterValues["orderId"])
}

func TestPublishAndStoredWorkflows(t *testing.T) {
	app := newTestApp(t, memory.New())
	code, _ := call(t, app, http.MethodPost, "/sessions/wf", nil)
	require.Equal(t, http.StatusCreated, code)

	code, body := call(t, app, http.MethodPost, "/sessions/wf/publish", nil)
	require.Equal(t, http.StatusOK, code, string(body))

	code, body = call(t, app, http.MethodGet, "/workflows/wf", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	stored := decode[workflow.Workflow](t, body)
	assert.NotNil(t, stored.PublishedAt)
	assert.Len(t, stored.Nodes, len(workflow.DefaultTemplate("wf").Nodes))

	code, body = call(t, app, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]workflow.Workflow](t, body), 1)

	code, _ = call(t, app, http.MethodDelete, "/sessions/wf/nodes/start", nil)
	require.Equal(t, http.StatusOK, code)
	code, body = call(t, app, http.MethodPost, "/sessions/wf/publish", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	resp := decode[map[string]any](t, body)
	assert.NotEmpty(t, resp["issues"])

	code, _ = call(t, app, http.MethodDelete, "/workflows/wf", nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = call(t, app, http.MethodGet, "/workflows/wf", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPutWorkflowThenOpenSession(t *testing.T) {
	app := newTestApp(t, memory.New())
	w := workflow.Workflow{
		Name: "Tiny",
		Nodes: []workflow.Node{
			{ID: "s", Type: workflow.NodeStart, Config: workflow.StartConfig{}},
			{ID: "e", Type: workflow.NodeEnd, Position: workflow.Position{X: 300}, Config: workflow.EndConfig{}},
		},
		Edges: []workflow.Edge{{ID: "s-e", Source: "s", Target: "e"}},
	}
	code, body := call(t, app, http.MethodPut, "/workflows/tiny", w)
	require.Equal(t, http.StatusNoContent, code, string(body))

	code, body = call(t, app, http.MethodPost, "/sessions/tiny", nil)
	require.Equal(t, http.StatusCreated, code)
	st := decode[sessionState](t, body)
	assert.Equal(t, "Tiny", st.Name)
	assert.Len(t, st.Nodes, 2)
	assert.Len(t, st.Edges, 1)
}

func TestValidateRoute(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := call(t, app, http.MethodPost, "/validate", workflow.DefaultTemplate("wf"))
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, true, decode[map[string]any](t, body)["valid"])

	code, body = call(t, app, http.MethodPost, "/validate", workflow.Workflow{ID: "empty"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, decode[map[string]any](t, body)["valid"])

	code, _ = call(t, app, http.MethodGet, "/tools", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, app, http.MethodGet, "/palette", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestWithoutStore(t *testing.T) {
	app := newTestApp(t, nil)

	code, _ := call(t, app, http.MethodGet, "/workflows", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = call(t, app, http.MethodPost, "/sessions/wf", nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = call(t, app, http.MethodPost, "/sessions/wf/save", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{builder.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", workflow.ErrNodeNotFound), http.StatusNotFound},
		{workflow.ErrDuplicateEdge, http.StatusConflict},
		{workflow.ErrNoInputAnchor, http.StatusConflict},
		{&workflow.ValidationError{}, http.StatusUnprocessableEntity},
		{editor.ErrUnknownParameter, http.StatusBadRequest},
		{builder.ErrNoStore, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, status(tt.err))
		})
	}
}
