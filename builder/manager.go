package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/canvas"
)

var (
	ErrNoStore         = errors.New("builder: no store configured")
	ErrSessionNotFound = errors.New("builder: session not open")
)

// Manager keeps the open sessions, one per workflow id.
type Manager struct {
	store  workflow.Store
	tools  []workflow.ToolDescriptor
	geo    canvas.Geometry
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithGeometry sets the canvas geometry of new sessions.
func WithGeometry(g canvas.Geometry) Option {
	return func(m *Manager) { m.geo = g }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns a manager backed by store, which may be nil when
// nothing is ever saved.
func NewManager(store workflow.Store, tools []workflow.ToolDescriptor, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		tools:    tools,
		geo:      canvas.DefaultGeometry(),
		logger:   slog.New(slog.DiscardHandler),
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Tools returns the tool descriptors offered to Tool nodes.
func (m *Manager) Tools() []workflow.ToolDescriptor {
	return append([]workflow.ToolDescriptor{}, m.tools...)
}

// Open returns the session for id, loading the stored workflow or, when
// there is none, the default template.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.Get(id); ok {
		return s, nil
	}

	w, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	g, dropped, err := workflow.Load(w)
	if err != nil {
		return nil, fmt.Errorf("builder: load %s: %w", id, err)
	}
	for _, e := range dropped {
		m.logger.Warn("dropped invalid edge", "workflow", id, "edge", e.ID, "source", e.Source, "target", e.Target)
	}

	s := &Session{
		id:     id,
		name:   w.Name,
		store:  m.store,
		tools:  workflow.NewCatalog(m.tools),
		logger: m.logger,
		graph:  g,
		canvas: canvas.New(g, canvas.WithGeometry(m.geo)),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	m.sessions[id] = s
	nodes, edges := g.Len()
	m.logger.Info("session opened", "workflow", id, "nodes", nodes, "edges", edges)
	return s, nil
}

func (m *Manager) load(ctx context.Context, id string) (*workflow.Workflow, error) {
	if m.store == nil {
		return workflow.DefaultTemplate(id), nil
	}
	w, err := m.store.GetWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("builder: get %s: %w", id, err)
	}
	if w == nil {
		return workflow.DefaultTemplate(id), nil
	}
	return w, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close discards a session without saving. It reports whether one was open.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Info("session closed", "workflow", id)
	return true
}
