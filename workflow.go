package workflow

import "time"

// Workflow is the envelope a builder session loads from and saves to a Store.
type Workflow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Nodes       []Node     `json:"nodes"`
	Edges       []Edge     `json:"edges"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Position is a point in canvas space. Canvas space does not move when the
// viewport is panned.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the vector from d to p.
func (p Position) Sub(d Position) Position {
	return Position{X: p.X - d.X, Y: p.Y - d.Y}
}

// Node is a typed unit of work in the workflow graph.
type Node struct {
	ID          string
	Type        NodeType
	Position    Position
	Title       string
	Description string
	Config      Config
}

// Edge is a directed connection between two nodes.
// Label annotates conditional branches ("Yes", "No").
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}
