// Package memory implements workflow.Store in process memory. Nothing
// survives a restart; it backs tests and the "memory" store backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meikuraledutech/workflow"
)

type record struct {
	w       *workflow.Workflow
	created int
}

// Store implements workflow.Store with a map.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
	seq     int
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{records: make(map[string]record), now: time.Now}
}

// CreateSchema is a no-op.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema forgets every workflow.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]record)
	return nil
}

// SaveWorkflow stores a normalised copy of w.
func (s *Store) SaveWorkflow(ctx context.Context, w *workflow.Workflow) error {
	clean, _, err := workflow.Normalize(w)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[clean.ID]
	if ok {
		clean.PublishedAt = r.w.PublishedAt
	} else {
		clean.PublishedAt = nil
		s.seq++
		r.created = s.seq
	}
	r.w = clean
	s.records[clean.ID] = r
	return nil
}

// GetWorkflow returns a copy of the stored workflow.
// Returns nil, nil if not found.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	out, _, err := workflow.Normalize(r.w)
	if err != nil {
		return nil, err
	}
	if r.w.PublishedAt != nil {
		t := *r.w.PublishedAt
		out.PublishedAt = &t
	}
	return out, nil
}

// ListWorkflows returns headers in save order.
// Returns an empty slice (not nil) if none found.
func (s *Store) ListWorkflows(ctx context.Context) ([]workflow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCreated := make([]record, s.seq+1)
	for _, r := range s.records {
		byCreated[r.created] = r
	}
	out := []workflow.Workflow{}
	for _, r := range byCreated {
		if r.w == nil {
			continue
		}
		h := workflow.Workflow{ID: r.w.ID, Name: r.w.Name}
		if r.w.PublishedAt != nil {
			t := *r.w.PublishedAt
			h.PublishedAt = &t
		}
		out = append(out, h)
	}
	return out, nil
}

// DeleteWorkflow removes a workflow. No error if it doesn't exist.
func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// MarkPublished stamps the workflow as published now.
// Returns ErrWorkflowNotFound if the workflow doesn't exist.
func (s *Store) MarkPublished(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return workflow.ErrWorkflowNotFound
	}
	// Stored workflows are never mutated in place.
	published := *r.w
	t := s.now().UTC()
	published.PublishedAt = &t
	r.w = &published
	s.records[id] = r
	return nil
}
