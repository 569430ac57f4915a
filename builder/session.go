// Package builder hosts open workflow builder sessions. A session bundles
// the graph, the canvas controller and the config editor of one workflow and
// serialises every event applied to them.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/canvas"
	"github.com/meikuraledutech/workflow/editor"
)

// Session is one open builder.
type Session struct {
	id     string
	store  workflow.Store
	tools  workflow.Catalog
	logger *slog.Logger

	mu     sync.Mutex
	name   string
	graph  *workflow.Graph
	canvas *canvas.Controller
	editor *editor.Editor
}

// View is what a Do callback may touch. Editor is nil unless a node is
// selected.
type View struct {
	Graph  *workflow.Graph
	Canvas *canvas.Controller
	Editor *editor.Editor
}

// ID returns the workflow id.
func (s *Session) ID() string { return s.id }

// Do runs fn with exclusive access to the session. The editor follows the
// canvas selection: when the selected node changes, drafts of the previous
// node are committed first, the way a text field blurs before the click
// that moves focus elsewhere.
func (s *Session) Do(fn func(v View) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncEditor()
	err := fn(View{Graph: s.graph, Canvas: s.canvas, Editor: s.editor})
	s.syncEditor()
	return err
}

func (s *Session) syncEditor() {
	node, _ := s.canvas.Selection()
	if s.editor != nil && s.editor.NodeID() == node {
		return
	}
	if s.editor != nil {
		if err := s.editor.Blur(); err != nil {
			s.logger.Debug("drop drafts of removed node", "workflow", s.id, "node", s.editor.NodeID())
		}
		s.editor = nil
	}
	if node == "" {
		return
	}
	ed, err := editor.Open(s.graph, node, s.tools)
	if err != nil {
		s.logger.Warn("open editor", "workflow", s.id, "node", node, "error", err)
		return
	}
	s.editor = ed
}

// Rename sets the workflow's display name.
func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Snapshot copies the current graph into a Workflow.
func (s *Session) Snapshot() *workflow.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Snapshot(s.id, s.name)
}

// flush commits the open editor's drafts, as leaving a text field for the
// Save button does, and snapshots the result.
func (s *Session) flush() *workflow.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil {
		if err := s.editor.Blur(); err != nil {
			s.logger.Warn("commit drafts", "workflow", s.id, "node", s.editor.NodeID(), "error", err)
		}
	}
	return s.graph.Snapshot(s.id, s.name)
}

// Validate checks the current graph against the tool catalog.
func (s *Session) Validate() workflow.Issues {
	return workflow.Validate(s.Snapshot(), s.tools)
}

// Save commits pending drafts and writes the current graph to the store.
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	w := s.flush()
	if err := s.store.SaveWorkflow(ctx, w); err != nil {
		return fmt.Errorf("builder: save %s: %w", s.id, err)
	}
	s.logger.Info("workflow saved", "workflow", s.id, "nodes", len(w.Nodes), "edges", len(w.Edges))
	return nil
}

// Publish commits pending drafts, then validates, saves and marks the workflow published. Error-severity
// issues block it with a *workflow.ValidationError. Warnings are returned
// either way.
func (s *Session) Publish(ctx context.Context) (workflow.Issues, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	w := s.flush()
	issues := workflow.Validate(w, s.tools)
	if issues.HasErrors() {
		s.logger.Info("publish rejected", "workflow", s.id, "issues", len(issues))
		return issues, &workflow.ValidationError{Issues: issues}
	}
	if err := s.store.SaveWorkflow(ctx, w); err != nil {
		return issues, fmt.Errorf("builder: save %s: %w", s.id, err)
	}
	if err := s.store.MarkPublished(ctx, s.id); err != nil {
		return issues, fmt.Errorf("builder: publish %s: %w", s.id, err)
	}
	s.logger.Info("workflow published", "workflow", s.id, "warnings", len(issues))
	return issues, nil
}

// State is the renderable state of a session.
type State struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Nodes        []workflow.Node   `json:"nodes"`
	Edges        []workflow.Edge   `json:"edges"`
	Pan          workflow.Position `json:"pan"`
	Gesture      string            `json:"gesture"`
	SelectedNode string            `json:"selectedNode,omitempty"`
	SelectedEdge string            `json:"selectedEdge,omitempty"`
	PendingEdge  *PendingEdge      `json:"pendingEdge,omitempty"`
	Fields       []editor.Field    `json:"fields,omitempty"`
}

// PendingEdge is the edge being drawn, for preview.
type PendingEdge struct {
	Source   string            `json:"source"`
	Endpoint workflow.Position `json:"endpoint"`
}

// State captures the session for rendering.
func (s *Session) State() State {
	var st State
	_ = s.Do(func(v View) error {
		node, edge := v.Canvas.Selection()
		st = State{
			ID:           s.id,
			Name:         s.name,
			Nodes:        v.Graph.Nodes(),
			Edges:        v.Graph.Edges(),
			Pan:          v.Canvas.Pan(),
			Gesture:      v.Canvas.Gesture().String(),
			SelectedNode: node,
			SelectedEdge: edge,
		}
		if src, end, ok := v.Canvas.PendingEdge(); ok {
			st.PendingEdge = &PendingEdge{Source: src, Endpoint: end}
		}
		if v.Editor != nil {
			st.Fields, _ = v.Editor.Fields()
		}
		return nil
	})
	return st
}
