package workflow

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound     = errors.New("workflow: node not found")
	ErrEdgeNotFound     = errors.New("workflow: edge not found")
	ErrDuplicateEdge    = errors.New("workflow: edge already exists")
	ErrSelfLoop         = errors.New("workflow: edge source and target are the same node")
	ErrNoInputAnchor    = errors.New("workflow: target node accepts no incoming edges")
	ErrNoOutputAnchor   = errors.New("workflow: source node has no outgoing edges")
	ErrUnknownNodeType  = errors.New("workflow: unknown node type")
	ErrWorkflowNotFound = errors.New("workflow: workflow not found")
)

func unknownType(s string) error {
	return fmt.Errorf("%w %q", ErrUnknownNodeType, s)
}

// IsEdgeRejected reports whether err is one of the reasons AddEdge refuses an edge.
func IsEdgeRejected(err error) bool {
	return errors.Is(err, ErrDuplicateEdge) ||
		errors.Is(err, ErrSelfLoop) ||
		errors.Is(err, ErrNoInputAnchor) ||
		errors.Is(err, ErrNoOutputAnchor)
}

// Store persists workflows on behalf of the application hosting the builder.
// The builder core never calls it; Save and Publish do.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// SaveWorkflow replaces the stored nodes and edges of w.ID in one
	// transaction. The published timestamp is preserved.
	SaveWorkflow(ctx context.Context, w *Workflow) error
	// GetWorkflow returns nil, nil when no workflow has the id.
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	// ListWorkflows returns headers only (no nodes or edges).
	ListWorkflows(ctx context.Context) ([]Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	// MarkPublished stamps the workflow as published now.
	// Returns ErrWorkflowNotFound if it was never saved.
	MarkPublished(ctx context.Context, id string) error
}
