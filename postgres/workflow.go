package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/workflow"
)

// SaveWorkflow stores a full workflow (nodes + edges) in one transaction,
// replacing whatever was stored under the same id. Edges that reference
// missing nodes or repeat a pair are dropped before writing.
func (s *PGStore) SaveWorkflow(ctx context.Context, w *workflow.Workflow) error {
	clean, _, err := workflow.Normalize(w)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("workflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO workflows (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`,
		clean.ID, clean.Name,
	); err != nil {
		return fmt.Errorf("workflow: upsert workflow: %w", err)
	}

	// Replace semantics; edges go with their nodes via ON DELETE CASCADE.
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_nodes WHERE workflow_id = $1`, clean.ID); err != nil {
		return fmt.Errorf("workflow: delete nodes: %w", err)
	}

	for i, n := range clean.Nodes {
		cfg, err := workflow.EncodeConfig(n.Config)
		if err != nil {
			return fmt.Errorf("workflow: encode config %s: %w", n.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_nodes (workflow_id, id, seq, type, pos_x, pos_y, title, description, config)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			clean.ID, n.ID, i, string(n.Type), n.Position.X, n.Position.Y, n.Title, n.Description, cfg,
		); err != nil {
			return fmt.Errorf("workflow: insert node %s: %w", n.ID, err)
		}
	}

	for i, e := range clean.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_edges (workflow_id, id, seq, source, target, label) VALUES ($1, $2, $3, $4, $5, $6)`,
			clean.ID, e.ID, i, e.Source, e.Target, e.Label,
		); err != nil {
			return fmt.Errorf("workflow: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("workflow: commit: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a full workflow by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	w := &workflow.Workflow{ID: id, Nodes: []workflow.Node{}, Edges: []workflow.Edge{}}
	err := s.db.QueryRow(ctx,
		`SELECT name, published_at FROM workflows WHERE id = $1`, id,
	).Scan(&w.Name, &w.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: get workflow: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, type, pos_x, pos_y, title, description, config
		 FROM workflow_nodes WHERE workflow_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("workflow: query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n   workflow.Node
			typ string
			cfg []byte
		)
		if err := rows.Scan(&n.ID, &typ, &n.Position.X, &n.Position.Y, &n.Title, &n.Description, &cfg); err != nil {
			return nil, fmt.Errorf("workflow: scan node: %w", err)
		}
		if n.Type, err = workflow.ParseNodeType(typ); err != nil {
			return nil, err
		}
		if n.Config, err = workflow.DecodeConfig(n.Type, cfg); err != nil {
			return nil, fmt.Errorf("workflow: node %s: %w", n.ID, err)
		}
		w.Nodes = append(w.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT id, source, target, label FROM workflow_edges WHERE workflow_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("workflow: query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e workflow.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Label); err != nil {
			return nil, fmt.Errorf("workflow: scan edge: %w", err)
		}
		w.Edges = append(w.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows edges: %w", err)
	}

	return w, nil
}

// ListWorkflows returns every stored workflow without nodes or edges,
// ordered by created_at. Returns an empty slice (not nil) if none found.
func (s *PGStore) ListWorkflows(ctx context.Context) ([]workflow.Workflow, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, published_at FROM workflows ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}
	defer rows.Close()

	out := []workflow.Workflow{}
	for rows.Next() {
		var w workflow.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.PublishedAt); err != nil {
			return nil, fmt.Errorf("workflow: scan workflow: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows workflows: %w", err)
	}
	return out, nil
}

// DeleteWorkflow removes a workflow with its nodes and edges.
// No error if the workflow doesn't exist.
func (s *PGStore) DeleteWorkflow(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("workflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workflow_edges WHERE workflow_id = $1`, id); err != nil {
		return fmt.Errorf("workflow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("workflow: delete workflow: %w", err)
	}

	return tx.Commit(ctx)
}

// MarkPublished stamps the workflow as published.
// Returns ErrWorkflowNotFound if the workflow doesn't exist.
func (s *PGStore) MarkPublished(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `UPDATE workflows SET published_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("workflow: mark published: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}
