package canvas

import "github.com/meikuraledutech/workflow"

// HitKind is what lies under a point on the canvas.
type HitKind int

const (
	HitBackground HitKind = iota
	HitNode
	HitInputAnchor
	HitOutputAnchor
	HitEdge
)

func (k HitKind) String() string {
	switch k {
	case HitBackground:
		return "background"
	case HitNode:
		return "node"
	case HitInputAnchor:
		return "input-anchor"
	case HitOutputAnchor:
		return "output-anchor"
	case HitEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// Hit is the result of a hit test. NodeID is set for node and anchor hits,
// EdgeID for edge hits.
type Hit struct {
	Kind   HitKind
	NodeID string
	EdgeID string
}

// OnNode reports whether the hit landed anywhere on a node, anchors included.
func (h Hit) OnNode() bool {
	return h.Kind == HitNode || h.Kind == HitInputAnchor || h.Kind == HitOutputAnchor
}

// HitTest finds what lies under p (canvas space). Nodes are stacked above
// edges and later nodes above earlier ones. Anchors only exist on node types
// that accept the matching connection.
func (g Geometry) HitTest(graph *workflow.Graph, p Position) Hit {
	nodes := graph.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.Type.HasOutput() && dist(g.OutputAnchor(n.Position), p) <= g.AnchorRadius {
			return Hit{Kind: HitOutputAnchor, NodeID: n.ID}
		}
		if n.Type.HasInput() && dist(g.InputAnchor(n.Position), p) <= g.AnchorRadius {
			return Hit{Kind: HitInputAnchor, NodeID: n.ID}
		}
		if g.Contains(n.Position, p) {
			return Hit{Kind: HitNode, NodeID: n.ID}
		}
	}

	byID := make(map[string]Position, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n.Position
	}
	best, bestDist := "", g.EdgeTolerance
	for _, e := range graph.Edges() {
		src, okS := byID[e.Source]
		dst, okT := byID[e.Target]
		if !okS || !okT {
			continue
		}
		if d := g.EdgeCurve(src, dst).Distance(p); d <= bestDist {
			best, bestDist = e.ID, d
		}
	}
	if best != "" {
		return Hit{Kind: HitEdge, EdgeID: best}
	}
	return Hit{Kind: HitBackground}
}
