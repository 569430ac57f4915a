// Package postgres implements workflow.Store on PostgreSQL. A workflow is one
// row in workflows plus its rows in workflow_nodes and workflow_edges; node
// configs are kept as JSONB in the front-end wire shape.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements workflow.Store using PostgreSQL via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}
