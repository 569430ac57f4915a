package workflow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// ErrDuplicateNode is returned by Load when two nodes share an id.
var ErrDuplicateNode = errors.New("workflow: duplicate node id")

// Graph is the in-memory node and edge store behind the canvas.
// It is not safe for concurrent use; callers serialise access.
//
// Every mutation either applies fully or leaves the graph unchanged.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Load builds a graph from a stored or template workflow. Edges that point at
// missing nodes, repeat an existing (source, target) pair, loop on one node or
// break the Start/End anchor rules are dropped and returned.
func Load(w *Workflow) (*Graph, []Edge, error) {
	g := NewGraph()
	for _, n := range w.Nodes {
		if !n.Type.Valid() {
			return nil, nil, unknownType(string(n.Type))
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if _, ok := g.nodes[n.ID]; ok {
			return nil, nil, fmt.Errorf("%w %q", ErrDuplicateNode, n.ID)
		}
		if n.Config == nil {
			n.Config = DefaultConfig(n.Type)
		}
		n = n.clone()
		g.nodes[n.ID] = &n
		g.order = append(g.order, n.ID)
	}

	var dropped []Edge
	for _, e := range w.Edges {
		if err := g.checkEdge(e.Source, e.Target); err != nil {
			dropped = append(dropped, e)
			continue
		}
		if e.ID == "" || g.edgeIndex(e.ID) >= 0 {
			e.ID = g.edgeID(e.Source, e.Target)
		}
		g.edges = append(g.edges, e)
	}
	return g, dropped, nil
}

// AddNode places a new node of type t at pos and returns its id. A nil cfg
// gives the type's default config. Title and description come from the palette.
func (g *Graph) AddNode(t NodeType, pos Position, cfg Config) (string, error) {
	if !t.Valid() {
		return "", unknownType(string(t))
	}
	if cfg == nil {
		cfg = DefaultConfig(t)
	}
	p := palette[t]
	n := &Node{
		ID:          uuid.NewString(),
		Type:        t,
		Position:    pos,
		Title:       p.Title,
		Description: p.Description,
		Config:      cfg.clone(),
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return n.ID, nil
}

// MoveNode replaces the position of a node. Nodes may overlap or sit
// anywhere in canvas space.
func (g *Graph) MoveNode(id string, pos Position) error {
	n, ok := g.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Position = pos
	return nil
}

// DeleteNode removes a node together with every edge that touches it.
// It reports whether the node existed.
func (g *Graph) DeleteNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return e.Source == id || e.Target == id
	})
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	return true
}

// UpdateNodeConfig replaces the config of a node. The shape of cfg is not
// checked against the node type; see Validate.
func (g *Graph) UpdateNodeConfig(id string, cfg Config) error {
	n, ok := g.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Config = CloneConfig(cfg)
	return nil
}

// UpdateNodeDetails replaces the display title and description of a node.
func (g *Graph) UpdateNodeDetails(id, title, description string) error {
	n, ok := g.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Title = title
	n.Description = description
	return nil
}

// AddEdge connects source to target and returns the new edge id.
// A rejected edge leaves the graph unchanged.
func (g *Graph) AddEdge(source, target string) (string, error) {
	if err := g.checkEdge(source, target); err != nil {
		return "", err
	}
	e := Edge{ID: g.edgeID(source, target), Source: source, Target: target}
	g.edges = append(g.edges, e)
	return e.ID, nil
}

func (g *Graph) checkEdge(source, target string) error {
	src, ok := g.nodes[source]
	if !ok {
		return fmt.Errorf("%w: source %q", ErrNodeNotFound, source)
	}
	dst, ok := g.nodes[target]
	if !ok {
		return fmt.Errorf("%w: target %q", ErrNodeNotFound, target)
	}
	switch {
	case source == target:
		return ErrSelfLoop
	case !src.Type.HasOutput():
		return ErrNoOutputAnchor
	case !dst.Type.HasInput():
		return ErrNoInputAnchor
	case g.HasEdge(source, target):
		return ErrDuplicateEdge
	}
	return nil
}

// edgeID derives "edge-<source>-<target>", falling back to a uuid when a
// loaded edge already owns that id.
func (g *Graph) edgeID(source, target string) string {
	id := "edge-" + source + "-" + target
	if g.edgeIndex(id) >= 0 {
		return "edge-" + uuid.NewString()
	}
	return id
}

// HasEdge reports whether an edge from source to target exists.
func (g *Graph) HasEdge(source, target string) bool {
	return slices.ContainsFunc(g.edges, func(e Edge) bool {
		return e.Source == source && e.Target == target
	})
}

// DeleteEdge removes an edge and reports whether it existed.
func (g *Graph) DeleteEdge(id string) bool {
	i := g.edgeIndex(id)
	if i < 0 {
		return false
	}
	g.edges = slices.Delete(g.edges, i, i+1)
	return true
}

// SetEdgeLabel sets the branch annotation of an edge. An empty label clears it.
func (g *Graph) SetEdgeLabel(id, label string) error {
	i := g.edgeIndex(id)
	if i < 0 {
		return ErrEdgeNotFound
	}
	g.edges[i].Label = label
	return nil
}

func (g *Graph) edgeIndex(id string) int {
	return slices.IndexFunc(g.edges, func(e Edge) bool { return e.ID == id })
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Edge returns a copy of the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	i := g.edgeIndex(id)
	if i < 0 {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Nodes returns copies of all nodes in insertion order. Later nodes are drawn
// on top of earlier ones.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge{}, g.edges...)
}

// Len returns the number of nodes and edges.
func (g *Graph) Len() (nodes, edges int) {
	return len(g.order), len(g.edges)
}

// Snapshot copies the graph into a Workflow envelope for saving.
func (g *Graph) Snapshot(id, name string) *Workflow {
	return &Workflow{
		ID:    id,
		Name:  name,
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	}
}

// Normalize returns a copy of w without the edges Load would drop, so that
// stores never persist a dangling or duplicate edge.
func Normalize(w *Workflow) (*Workflow, []Edge, error) {
	g, dropped, err := Load(w)
	if err != nil {
		return nil, nil, err
	}
	out := g.Snapshot(w.ID, w.Name)
	out.PublishedAt = w.PublishedAt
	return out, dropped, nil
}
