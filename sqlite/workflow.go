package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meikuraledutech/workflow"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// SaveWorkflow stores a full workflow in one transaction, replacing whatever
// was stored under the same id. Edges that reference missing nodes or repeat
// a pair are dropped before writing.
func (s *Store) SaveWorkflow(ctx context.Context, w *workflow.Workflow) error {
	clean, _, err := workflow.Normalize(w)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("workflow: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO workflows (id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		clean.ID, clean.Name, now,
	); err != nil {
		return fmt.Errorf("workflow: upsert workflow: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_nodes WHERE workflow_id = ?`, clean.ID); err != nil {
		return fmt.Errorf("workflow: delete nodes: %w", err)
	}

	for i, n := range clean.Nodes {
		cfg, err := workflow.EncodeConfig(n.Config)
		if err != nil {
			return fmt.Errorf("workflow: encode config %s: %w", n.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workflow_nodes (workflow_id, id, seq, type, pos_x, pos_y, title, description, config)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			clean.ID, n.ID, i, string(n.Type), n.Position.X, n.Position.Y, n.Title, n.Description, string(cfg),
		); err != nil {
			return fmt.Errorf("workflow: insert node %s: %w", n.ID, err)
		}
	}

	for i, e := range clean.Edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workflow_edges (workflow_id, id, seq, source, target, label) VALUES (?, ?, ?, ?, ?, ?)`,
			clean.ID, e.ID, i, e.Source, e.Target, e.Label,
		); err != nil {
			return fmt.Errorf("workflow: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("workflow: commit: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a full workflow by its ID.
// Returns nil, nil if not found.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	w := &workflow.Workflow{ID: id, Nodes: []workflow.Node{}, Edges: []workflow.Edge{}}
	var published sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT name, published_at FROM workflows WHERE id = ?`, id,
	).Scan(&w.Name, &published)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: get workflow: %w", err)
	}
	if w.PublishedAt, err = parseTime(published); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, pos_x, pos_y, title, description, config
		 FROM workflow_nodes WHERE workflow_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("workflow: query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n   workflow.Node
			typ string
			cfg string
		)
		if err := rows.Scan(&n.ID, &typ, &n.Position.X, &n.Position.Y, &n.Title, &n.Description, &cfg); err != nil {
			return nil, fmt.Errorf("workflow: scan node: %w", err)
		}
		if n.Type, err = workflow.ParseNodeType(typ); err != nil {
			return nil, err
		}
		if n.Config, err = workflow.DecodeConfig(n.Type, []byte(cfg)); err != nil {
			return nil, fmt.Errorf("workflow: node %s: %w", n.ID, err)
		}
		w.Nodes = append(w.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows nodes: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT id, source, target, label FROM workflow_edges WHERE workflow_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("workflow: query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e workflow.Edge
		if err := edgeRows.Scan(&e.ID, &e.Source, &e.Target, &e.Label); err != nil {
			return nil, fmt.Errorf("workflow: scan edge: %w", err)
		}
		w.Edges = append(w.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows edges: %w", err)
	}

	return w, nil
}

// ListWorkflows returns every stored workflow without nodes or edges,
// ordered by creation. Returns an empty slice (not nil) if none found.
func (s *Store) ListWorkflows(ctx context.Context) ([]workflow.Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, published_at FROM workflows ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}
	defer rows.Close()

	out := []workflow.Workflow{}
	for rows.Next() {
		var (
			w         workflow.Workflow
			published sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.Name, &published); err != nil {
			return nil, fmt.Errorf("workflow: scan workflow: %w", err)
		}
		if w.PublishedAt, err = parseTime(published); err != nil {
			return nil, err
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
func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id); err != nil {
		return fmt.Errorf("workflow: delete workflow: %w", err)
	}
	return nil
}

// MarkPublished stamps the workflow as published.
// Returns ErrWorkflowNotFound if the workflow doesn't exist.
func (s *Store) MarkPublished(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflows SET published_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("workflow: mark published: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("workflow: mark published: %w", err)
	}
	if n == 0 {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("workflow: parse time %q: %w", s.String, err)
	}
	return &t, nil
}
