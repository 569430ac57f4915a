package canvas

import (
	"errors"

	"github.com/meikuraledutech/workflow"
)

// Gesture is the pointer interaction currently in progress. At most one is
// active at a time.
type Gesture int

const (
	GestureIdle Gesture = iota
	GestureDragging
	GestureDrawingEdge
	GesturePanning
)

func (g Gesture) String() string {
	switch g {
	case GestureIdle:
		return "idle"
	case GestureDragging:
		return "dragging"
	case GestureDrawingEdge:
		return "drawing-edge"
	case GesturePanning:
		return "panning"
	default:
		return "unknown"
	}
}

// Key is a keyboard key the controller reacts to.
type Key string

const (
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyEscape    Key = "Escape"
)

// Controller turns pointer and key events into graph mutations. It owns the
// viewport pan offset, the active gesture and the selection.
//
// Pointer positions passed in are in screen space, relative to the canvas
// origin. Canvas space is screen space minus the pan offset.
//
// Like the Graph, a Controller is driven from a single goroutine.
type Controller struct {
	graph *workflow.Graph
	geo   Geometry
	pan   Position

	pressed bool
	gesture Gesture
	press   Hit      // what was under the pointer at pointer-down
	downAt  Position // screen
	travel  float64  // furthest the pointer strayed from downAt

	// dragging
	dragNode   string
	grabOffset Position
	dragOrigin Position

	// drawing an edge
	edgeSource string
	endpoint   Position

	// panning
	originPan Position

	selectedNode string
	selectedEdge string
}

// Option configures a Controller.
type Option func(*Controller)

// WithGeometry overrides DefaultGeometry.
func WithGeometry(g Geometry) Option {
	return func(c *Controller) { c.geo = g }
}

// WithPan sets the initial viewport offset.
func WithPan(p Position) Option {
	return func(c *Controller) { c.pan = p }
}

// New returns an idle controller over graph.
func New(graph *workflow.Graph, opts ...Option) *Controller {
	c := &Controller{graph: graph, geo: DefaultGeometry()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Graph returns the graph the controller edits.
func (c *Controller) Graph() *workflow.Graph { return c.graph }

// Geometry returns the geometry used for hit testing.
func (c *Controller) Geometry() Geometry { return c.geo }

// Gesture returns the active gesture.
func (c *Controller) Gesture() Gesture { return c.gesture }

// Pan returns the viewport offset.
func (c *Controller) Pan() Position { return c.pan }

// SetPan moves the viewport. It is ignored while a pan gesture is running.
func (c *Controller) SetPan(p Position) {
	if c.gesture != GesturePanning {
		c.pan = p
	}
}

// ToCanvas converts a screen position to canvas space.
func (c *Controller) ToCanvas(p Position) Position {
	return p.Sub(c.pan)
}

// HitTest reports what lies under the screen position p.
func (c *Controller) HitTest(p Position) Hit {
	return c.geo.HitTest(c.graph, c.ToCanvas(p))
}

// PointerDown starts whatever gesture the press calls for and reports
// whether the press was accepted. A press while another is in flight is
// ignored until the active one resolves.
func (c *Controller) PointerDown(p Position) bool {
	if c.pressed {
		return false
	}
	hit := c.HitTest(p)
	c.pressed = true
	c.press = hit
	c.downAt = p
	c.travel = 0

	switch hit.Kind {
	case HitNode:
		n, _ := c.graph.Node(hit.NodeID)
		c.gesture = GestureDragging
		c.dragNode = n.ID
		c.dragOrigin = n.Position
		c.grabOffset = c.ToCanvas(p).Sub(n.Position)
	case HitOutputAnchor:
		c.gesture = GestureDrawingEdge
		c.edgeSource = hit.NodeID
		c.endpoint = c.ToCanvas(p)
	case HitBackground:
		c.gesture = GesturePanning
		c.originPan = c.pan
	case HitInputAnchor, HitEdge:
		// No gesture; the release decides whether this was a click.
	}
	return true
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(p Position) {
	if !c.pressed {
		return
	}
	if d := dist(p, c.downAt); d > c.travel {
		c.travel = d
	}

	switch c.gesture {
	case GestureDragging:
		err := c.graph.MoveNode(c.dragNode, c.ToCanvas(p).Sub(c.grabOffset))
		if errors.Is(err, workflow.ErrNodeNotFound) {
			c.reset()
		}
	case GestureDrawingEdge:
		c.endpoint = c.ToCanvas(p)
	case GesturePanning:
		c.pan = c.originPan.Add(p.Sub(c.downAt))
	}
}

// PointerUp ends the active gesture. Releasing an edge draw over another
// node commits the edge; anywhere else discards it. A release that barely
// moved is treated as a click and updates the selection.
func (c *Controller) PointerUp(p Position) {
	if !c.pressed {
		return
	}
	c.PointerMove(p)
	if !c.pressed {
		return
	}
	click := c.travel <= c.geo.ClickSlop

	switch c.gesture {
	case GestureDragging:
		if click {
			c.SelectNode(c.dragNode)
		}
	case GestureDrawingEdge:
		hit := c.HitTest(p)
		if hit.OnNode() && hit.NodeID != c.edgeSource {
			// Rejections (duplicate, no input anchor) are silent.
			_, _ = c.graph.AddEdge(c.edgeSource, hit.NodeID)
		} else if click {
			c.SelectNode(c.edgeSource)
		}
	case GesturePanning:
		if click {
			c.ClearSelection()
		}
	case GestureIdle:
		if click {
			switch c.press.Kind {
			case HitEdge:
				c.SelectEdge(c.press.EdgeID)
			case HitInputAnchor:
				c.SelectNode(c.press.NodeID)
			}
		}
	}
	c.reset()
}

// Cancel aborts the active gesture and restores what it changed: a dragged
// node returns to where it started, a pan returns to its starting offset and
// an edge being drawn is dropped. The current press is then ignored until
// the pointer is released.
func (c *Controller) Cancel() {
	switch c.gesture {
	case GestureDragging:
		_ = c.graph.MoveNode(c.dragNode, c.dragOrigin)
	case GesturePanning:
		c.pan = c.originPan
	}
	c.reset()
}

func (c *Controller) reset() {
	c.pressed = false
	c.gesture = GestureIdle
	c.press = Hit{}
	c.travel = 0
	c.dragNode = ""
	c.edgeSource = ""
}

// KeyDown handles a key press. Delete and Backspace remove the selected node
// (with its edges) or edge unless focus is in a text input; Escape cancels
// the active gesture. It reports whether the key changed anything.
func (c *Controller) KeyDown(k Key, inTextInput bool) bool {
	switch k {
	case KeyEscape:
		active := c.gesture != GestureIdle
		c.Cancel()
		return active
	case KeyDelete, KeyBackspace:
		if inTextInput {
			return false
		}
		return c.DeleteSelected()
	}
	return false
}

// DeleteSelected removes the selected node or edge and clears the selection.
func (c *Controller) DeleteSelected() bool {
	node, edge := c.Selection()
	removed := false
	switch {
	case node != "":
		removed = c.graph.DeleteNode(node)
	case edge != "":
		removed = c.graph.DeleteEdge(edge)
	}
	c.ClearSelection()
	return removed
}

// Drop adds a node of type t where a palette item was released (screen
// space) and returns its id.
func (c *Controller) Drop(t workflow.NodeType, p Position) (string, error) {
	return c.graph.AddNode(t, c.ToCanvas(p), nil)
}

// SelectNode selects a node and clears any edge selection.
func (c *Controller) SelectNode(id string) {
	if _, ok := c.graph.Node(id); !ok {
		return
	}
	c.selectedNode, c.selectedEdge = id, ""
}

// SelectEdge selects an edge and clears any node selection.
func (c *Controller) SelectEdge(id string) {
	if _, ok := c.graph.Edge(id); !ok {
		return
	}
	c.selectedNode, c.selectedEdge = "", id
}

// ClearSelection deselects everything.
func (c *Controller) ClearSelection() {
	c.selectedNode, c.selectedEdge = "", ""
}

// Selection returns the selected node or edge id; at most one is non-empty.
// A selection whose target has left the graph is dropped.
func (c *Controller) Selection() (node, edge string) {
	if c.selectedNode != "" {
		if _, ok := c.graph.Node(c.selectedNode); !ok {
			c.selectedNode = ""
		}
	}
	if c.selectedEdge != "" {
		if _, ok := c.graph.Edge(c.selectedEdge); !ok {
			c.selectedEdge = ""
		}
	}
	return c.selectedNode, c.selectedEdge
}

// DraggingNode returns the node being dragged.
func (c *Controller) DraggingNode() (string, bool) {
	return c.dragNode, c.gesture == GestureDragging
}

// PendingEdge returns the source node and floating endpoint (canvas space)
// of the edge being drawn, for preview rendering.
func (c *Controller) PendingEdge() (source string, endpoint Position, ok bool) {
	if c.gesture != GestureDrawingEdge {
		return "", Position{}, false
	}
	return c.edgeSource, c.endpoint, true
}
