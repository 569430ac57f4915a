package workflow

import "maps"

// NodeType is the closed set of node kinds a workflow may contain.
type NodeType string

const (
	NodeStart       NodeType = "Start"
	NodeLLM         NodeType = "LLM"
	NodeTool        NodeType = "Tool"
	NodeConditional NodeType = "Conditional"
	NodeData        NodeType = "Data"
	NodeEnd         NodeType = "End"
)

// NodeTypes lists every node type in palette order.
var NodeTypes = []NodeType{NodeStart, NodeLLM, NodeTool, NodeConditional, NodeData, NodeEnd}

// ParseNodeType returns the NodeType named s or ErrUnknownNodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.Valid() {
		return "", unknownType(s)
	}
	return t, nil
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeLLM, NodeTool, NodeConditional, NodeData, NodeEnd:
		return true
	}
	return false
}

// HasInput reports whether nodes of this type can be the target of an edge.
func (t NodeType) HasInput() bool { return t.Valid() && t != NodeStart }

// HasOutput reports whether nodes of this type can be the source of an edge.
func (t NodeType) HasOutput() bool { return t.Valid() && t != NodeEnd }

// PaletteEntry is the title and blurb a freshly dropped node starts with.
type PaletteEntry struct {
	Type        NodeType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

var palette = map[NodeType]PaletteEntry{
	NodeStart:       {NodeStart, "Start Node", "Entry point for workflow execution."},
	NodeLLM:         {NodeLLM, "LLM Node", "Executes a pure LLM turn."},
	NodeTool:        {NodeTool, "Tool Node", "Calls an external API."},
	NodeConditional: {NodeConditional, "Conditional Node", "Decision gate based on logic."},
	NodeData:        {NodeData, "Data Node", "Reads/writes to state memory."},
	NodeEnd:         {NodeEnd, "End Node", "Completes the workflow."},
}

// Palette returns the palette entries in NodeTypes order.
func Palette() []PaletteEntry {
	out := make([]PaletteEntry, 0, len(NodeTypes))
	for _, t := range NodeTypes {
		out = append(out, palette[t])
	}
	return out
}

// Config is the type-specific payload attached to a node. The set of
// implementations is closed; use Accept with a ConfigVisitor to branch on it
// so a new node type breaks every caller at compile time.
type Config interface {
	NodeType() NodeType
	Accept(v ConfigVisitor)
	clone() Config
}

// ConfigVisitor has one method per node type.
type ConfigVisitor interface {
	VisitStart(StartConfig)
	VisitLLM(LLMConfig)
	VisitTool(ToolConfig)
	VisitConditional(ConditionalConfig)
	VisitData(DataConfig)
	VisitEnd(EndConfig)
}

// StartConfig is the empty payload of a Start node.
type StartConfig struct{}

func (StartConfig) NodeType() NodeType       { return NodeStart }
func (c StartConfig) Accept(v ConfigVisitor) { v.VisitStart(c) }
func (c StartConfig) clone() Config          { return c }

// EndConfig is the empty payload of an End node.
type EndConfig struct{}

func (EndConfig) NodeType() NodeType       { return NodeEnd }
func (c EndConfig) Accept(v ConfigVisitor) { v.VisitEnd(c) }
func (c EndConfig) clone() Config          { return c }

// LLMConfig holds the prompt for a single model turn.
type LLMConfig struct {
	Prompt string `json:"prompt"`
}

func (LLMConfig) NodeType() NodeType       { return NodeLLM }
func (c LLMConfig) Accept(v ConfigVisitor) { v.VisitLLM(c) }
func (c LLMConfig) clone() Config          { return c }

// ToolConfig references an external tool and binds its parameters.
// An empty ToolID means no tool is selected.
type ToolConfig struct {
	ToolID          string
	ParameterValues map[string]string
}

func (ToolConfig) NodeType() NodeType       { return NodeTool }
func (c ToolConfig) Accept(v ConfigVisitor) { v.VisitTool(c) }

func (c ToolConfig) clone() Config {
	c.ParameterValues = maps.Clone(c.ParameterValues)
	if c.ParameterValues == nil {
		c.ParameterValues = map[string]string{}
	}
	return c
}

// ConditionalConfig holds a boolean expression. It is stored as written and
// never parsed here.
type ConditionalConfig struct {
	Condition string `json:"condition"`
}

func (ConditionalConfig) NodeType() NodeType       { return NodeConditional }
func (c ConditionalConfig) Accept(v ConfigVisitor) { v.VisitConditional(c) }
func (c ConditionalConfig) clone() Config          { return c }

// DataOperation is the kind of state-memory access a Data node performs.
type DataOperation string

const (
	DataRead  DataOperation = "read"
	DataWrite DataOperation = "write"
)

// DataConfig reads or writes a named variable in workflow memory.
type DataConfig struct {
	Operation    DataOperation `json:"operation"`
	VariableName string        `json:"variableName"`
	Value        string        `json:"value"`
}

func (DataConfig) NodeType() NodeType       { return NodeData }
func (c DataConfig) Accept(v ConfigVisitor) { v.VisitData(c) }
func (c DataConfig) clone() Config          { return c }

// DefaultConfig returns the config a new node of type t starts with.
func DefaultConfig(t NodeType) Config {
	switch t {
	case NodeLLM:
		return LLMConfig{}
	case NodeTool:
		return ToolConfig{ParameterValues: map[string]string{}}
	case NodeConditional:
		return ConditionalConfig{}
	case NodeData:
		return DataConfig{Operation: DataWrite}
	case NodeEnd:
		return EndConfig{}
	default:
		return StartConfig{}
	}
}

// CloneConfig returns a deep copy of c, or nil for nil.
func CloneConfig(c Config) Config {
	if c == nil {
		return nil
	}
	return c.clone()
}

func (n Node) clone() Node {
	n.Config = CloneConfig(n.Config)
	return n
}
