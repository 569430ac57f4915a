package workflow

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidWorkflow is matched by a ValidationError with error-severity issues.
var ErrInvalidWorkflow = errors.New("workflow: invalid workflow")

// Severity ranks an Issue. Only SeverityError blocks a publish.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText lets issues encode their severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Issue codes.
const (
	CodeMissingConfig    = "missing_config"
	CodeConfigMismatch   = "config_mismatch"
	CodeEmptyPrompt      = "empty_prompt"
	CodeNoToolSelected   = "no_tool_selected"
	CodeUnknownTool      = "unknown_tool"
	CodeMissingParameter = "missing_parameter"
	CodeUnknownParameter = "unknown_parameter"
	CodeEmptyCondition   = "empty_condition"
	CodeBadDataOperation = "bad_data_operation"
	CodeMissingVariable  = "missing_variable"
	CodeEmptyWriteValue  = "empty_write_value"
	CodeDuplicateNode    = "duplicate_node"
	CodeUnknownNodeType  = "unknown_node_type"
	CodeDanglingEdge     = "dangling_edge"
	CodeDuplicateEdge    = "duplicate_edge"
	CodeSelfLoop         = "self_loop"
	CodeEdgeIntoStart    = "edge_into_start"
	CodeEdgeOutOfEnd     = "edge_out_of_end"
	CodeNoStart          = "no_start"
	CodeMultipleStarts   = "multiple_starts"
	CodeNoEnd            = "no_end"
	CodeUnreachable      = "unreachable"
	CodeCycle            = "cycle"
)

// Issue is one problem found by Validate.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	NodeID   string   `json:"nodeId,omitempty"`
	EdgeID   string   `json:"edgeId,omitempty"`
	Message  string   `json:"message"`
}

// Issues is the result of Validate, in discovery order.
type Issues []Issue

// HasErrors reports whether any issue has error severity.
func (is Issues) HasErrors() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidationError carries the issues that blocked a publish.
type ValidationError struct {
	Issues Issues
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, i := range e.Issues {
		if i.Severity == SeverityError {
			msgs = append(msgs, i.Message)
		}
	}
	return fmt.Sprintf("%v: %s", ErrInvalidWorkflow, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidWorkflow }

// Validate checks node configs against their types and the tool catalog, and
// the graph structure a runnable workflow needs. A nil catalog skips the
// tool lookups.
func Validate(w *Workflow, tools Catalog) Issues {
	v := &validator{tools: tools, issues: Issues{}}
	v.nodes(w.Nodes)
	v.edges(w.Edges)
	v.structure(w.Nodes, w.Edges)
	return v.issues
}

type validator struct {
	tools  Catalog
	issues Issues
	byID   map[string]Node
}

func (v *validator) add(sev Severity, code string, node, edge string, format string, args ...any) {
	v.issues = append(v.issues, Issue{
		Severity: sev,
		Code:     code,
		NodeID:   node,
		EdgeID:   edge,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validator) nodes(nodes []Node) {
	v.byID = make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if _, ok := v.byID[n.ID]; ok {
			v.add(SeverityError, CodeDuplicateNode, n.ID, "", "node id %q is used more than once", n.ID)
			continue
		}
		v.byID[n.ID] = n
		if !n.Type.Valid() {
			v.add(SeverityError, CodeUnknownNodeType, n.ID, "", "node %q has unknown type %q", n.ID, n.Type)
			continue
		}
		switch {
		case n.Config == nil:
			v.add(SeverityError, CodeMissingConfig, n.ID, "", "node %q has no config", n.ID)
		case n.Config.NodeType() != n.Type:
			v.add(SeverityError, CodeConfigMismatch, n.ID, "",
				"node %q is %s but carries a %s config", n.ID, n.Type, n.Config.NodeType())
		default:
			n.Config.Accept(&configChecker{v: v, node: n})
		}
	}
}

// configChecker validates one node's payload.
type configChecker struct {
	v    *validator
	node Node
}

func (c *configChecker) VisitStart(StartConfig) {}
func (c *configChecker) VisitEnd(EndConfig)     {}

func (c *configChecker) VisitLLM(cfg LLMConfig) {
	if strings.TrimSpace(cfg.Prompt) == "" {
		c.v.add(SeverityWarning, CodeEmptyPrompt, c.node.ID, "", "LLM node %q has an empty prompt", c.node.ID)
	}
}

func (c *configChecker) VisitTool(cfg ToolConfig) {
	id := c.node.ID
	if cfg.ToolID == "" {
		c.v.add(SeverityError, CodeNoToolSelected, id, "", "tool node %q has no tool selected", id)
		return
	}
	if c.v.tools == nil {
		return
	}
	tool, ok := c.v.tools[cfg.ToolID]
	if !ok {
		c.v.add(SeverityError, CodeUnknownTool, id, "", "tool node %q references unknown tool %q", id, cfg.ToolID)
		return
	}
	for _, p := range tool.Parameters {
		if p.Required && strings.TrimSpace(cfg.ParameterValues[p.Name]) == "" {
			c.v.add(SeverityError, CodeMissingParameter, id, "",
				"tool node %q does not bind required parameter %q of %s", id, p.Name, tool.Name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.ParameterValues)) {
		if _, ok := tool.Parameter(name); !ok {
			c.v.add(SeverityWarning, CodeUnknownParameter, id, "",
				"tool node %q binds %q which %s does not declare", id, name, tool.Name)
		}
	}
}

func (c *configChecker) VisitConditional(cfg ConditionalConfig) {
	if strings.TrimSpace(cfg.Condition) == "" {
		c.v.add(SeverityWarning, CodeEmptyCondition, c.node.ID, "", "conditional node %q has an empty condition", c.node.ID)
	}
}

func (c *configChecker) VisitData(cfg DataConfig) {
	id := c.node.ID
	if cfg.Operation != DataRead && cfg.Operation != DataWrite {
		c.v.add(SeverityError, CodeBadDataOperation, id, "", "data node %q has operation %q, want read or write", id, cfg.Operation)
	}
	if strings.TrimSpace(cfg.VariableName) == "" {
		c.v.add(SeverityError, CodeMissingVariable, id, "", "data node %q has no variable name", id)
	}
	if cfg.Operation == DataWrite && cfg.Value == "" {
		c.v.add(SeverityWarning, CodeEmptyWriteValue, id, "", "data node %q writes an empty value", id)
	}
}

func (v *validator) edges(edges []Edge) {
	type pair struct{ s, t string }
	seen := make(map[pair]bool, len(edges))
	for _, e := range edges {
		src, okS := v.byID[e.Source]
		dst, okT := v.byID[e.Target]
		if !okS || !okT {
			v.add(SeverityError, CodeDanglingEdge, "", e.ID, "edge %q references a missing node", e.ID)
			continue
		}
		if e.Source == e.Target {
			v.add(SeverityError, CodeSelfLoop, e.Source, e.ID, "edge %q loops on node %q", e.ID, e.Source)
		}
		if !src.Type.HasOutput() {
			v.add(SeverityError, CodeEdgeOutOfEnd, e.Source, e.ID, "edge %q leaves end node %q", e.ID, e.Source)
		}
		if !dst.Type.HasInput() {
			v.add(SeverityError, CodeEdgeIntoStart, e.Target, e.ID, "edge %q enters start node %q", e.ID, e.Target)
		}
		p := pair{e.Source, e.Target}
		if seen[p] {
			v.add(SeverityError, CodeDuplicateEdge, "", e.ID, "edge %q repeats %s -> %s", e.ID, e.Source, e.Target)
		}
		seen[p] = true
	}
}

func (v *validator) structure(nodes []Node, edges []Edge) {
	var starts []string
	hasEnd := false
	for _, n := range nodes {
		switch n.Type {
		case NodeStart:
			starts = append(starts, n.ID)
		case NodeEnd:
			hasEnd = true
		}
	}
	switch {
	case len(starts) == 0:
		v.add(SeverityError, CodeNoStart, "", "", "workflow has no start node")
	case len(starts) > 1:
		v.add(SeverityError, CodeMultipleStarts, "", "", "workflow has %d start nodes", len(starts))
	}
	if !hasEnd && len(nodes) > 0 {
		v.add(SeverityWarning, CodeNoEnd, "", "", "workflow has no end node")
	}

	adj := make(map[string][]string)
	for _, e := range edges {
		if _, ok := v.byID[e.Source]; !ok {
			continue
		}
		if _, ok := v.byID[e.Target]; !ok {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	if len(starts) > 0 {
		reached := reachable(adj, starts)
		for _, n := range nodes {
			if !reached[n.ID] {
				v.add(SeverityWarning, CodeUnreachable, n.ID, "", "node %q cannot be reached from the start node", n.ID)
			}
		}
	}

	if id, ok := findCycle(nodes, adj); ok {
		v.add(SeverityWarning, CodeCycle, id, "", "workflow loops back through node %q", id)
	}
}

func reachable(adj map[string][]string, from []string) map[string]bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), from...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, adj[id]...)
	}
	return seen
}

// findCycle runs a three-colour DFS in node order and returns the node that
// closes the first cycle found.
func findCycle(nodes []Node, adj map[string][]string) (string, bool) {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(nodes))
	var dfs func(id string) (string, bool)
	dfs = func(id string) (string, bool) {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return next, true
			case unvisited:
				if at, ok := dfs(next); ok {
					return at, true
				}
			}
		}
		state[id] = visited
		return "", false
	}

	for _, n := range nodes {
		if state[n.ID] == unvisited {
			if at, ok := dfs(n.ID); ok {
				return at, true
			}
		}
	}
	return "", false
}
