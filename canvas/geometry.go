package canvas

import (
	"math"

	"github.com/meikuraledutech/workflow"
)

// Position is a point in canvas or screen space.
type Position = workflow.Position

// Geometry sizes the shapes the canvas draws and hit tests against.
// All lengths are in canvas units.
type Geometry struct {
	NodeWidth  float64 `toml:"node_width"`
	NodeHeight float64 `toml:"node_height"`
	// AnchorRadius is the grab radius around a connection anchor.
	AnchorRadius float64 `toml:"anchor_radius"`
	// EdgeTolerance is half the width of the clickable band around an edge.
	EdgeTolerance float64 `toml:"edge_tolerance"`
	// ClickSlop is how far the pointer may travel between down and up and
	// still count as a click.
	ClickSlop float64 `toml:"click_slop"`
}

// DefaultGeometry matches the builder's node cards: 160x60 with anchors
// centred on the left and right borders.
func DefaultGeometry() Geometry {
	return Geometry{
		NodeWidth:     160,
		NodeHeight:    60,
		AnchorRadius:  6,
		EdgeTolerance: 10,
		ClickSlop:     3,
	}
}

// InputAnchor is where incoming edges attach to a node at pos.
func (g Geometry) InputAnchor(pos Position) Position {
	return Position{X: pos.X, Y: pos.Y + g.NodeHeight/2}
}

// OutputAnchor is where outgoing edges leave a node at pos.
func (g Geometry) OutputAnchor(pos Position) Position {
	return Position{X: pos.X + g.NodeWidth, Y: pos.Y + g.NodeHeight/2}
}

// Contains reports whether p lies on the body of a node at pos.
func (g Geometry) Contains(pos, p Position) bool {
	return p.X >= pos.X && p.X <= pos.X+g.NodeWidth &&
		p.Y >= pos.Y && p.Y <= pos.Y+g.NodeHeight
}

// Curve is a cubic Bézier from P0 to P3.
type Curve struct {
	P0, P1, P2, P3 Position
}

// EdgeCurve returns the curve drawn between the output anchor of a node at
// src and the input anchor of a node at dst. The control points sit
// horizontally, half the horizontal gap away from each end.
func (g Geometry) EdgeCurve(src, dst Position) Curve {
	from := g.OutputAnchor(src)
	to := g.InputAnchor(dst)
	dx := math.Abs(from.X-to.X) * 0.5
	return Curve{
		P0: from,
		P1: Position{X: from.X + dx, Y: from.Y},
		P2: Position{X: to.X - dx, Y: to.Y},
		P3: to,
	}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Position {
	u := 1 - t
	a, b, cc, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Position{
		X: a*c.P0.X + b*c.P1.X + cc*c.P2.X + d*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + cc*c.P2.Y + d*c.P3.Y,
	}
}

// Midpoint is where the delete affordance of a selected edge is placed.
func (c Curve) Midpoint() Position {
	return Position{X: (c.P0.X + c.P3.X) / 2, Y: (c.P0.Y + c.P3.Y) / 2}
}

const curveSegments = 32

// Distance approximates the shortest distance from p to the curve by
// flattening it into straight segments.
func (c Curve) Distance(p Position) float64 {
	best := math.Inf(1)
	prev := c.P0
	for i := 1; i <= curveSegments; i++ {
		next := c.At(float64(i) / curveSegments)
		if d := segmentDistance(prev, next, p); d < best {
			best = d
		}
		prev = next
	}
	return best
}

func segmentDistance(a, b, p Position) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return dist(a, p)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	return dist(Position{X: a.X + t*abx, Y: a.Y + t*aby}, p)
}

func dist(a, b Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
