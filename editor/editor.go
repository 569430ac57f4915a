// Package editor edits the config payload of one workflow node.
//
// Free-text fields are drafted and written back on Blur; selections (tool,
// data operation) and tool parameter bindings are written immediately. Every
// write replaces the node's whole config through Graph.UpdateNodeConfig.
package editor

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/meikuraledutech/workflow"
)

var (
	ErrNotEditable      = errors.New("editor: node has no editable fields")
	ErrWrongField       = errors.New("editor: field does not apply to this node type")
	ErrUnknownTool      = errors.New("editor: unknown tool")
	ErrUnknownParameter = errors.New("editor: tool does not declare parameter")
	ErrNoToolSelected   = errors.New("editor: no tool selected")
	ErrBadOperation     = errors.New("editor: data operation must be read or write")
)

// Editor holds the drafts for one node.
type Editor struct {
	graph  *workflow.Graph
	nodeID string
	typ    workflow.NodeType
	tools  workflow.Catalog

	// drafts holds edited, uncommitted text fields by field name. Fields
	// the user has not touched read through to the node's config.
	drafts map[string]string
}

// Open starts editing the node with the given id.
func Open(g *workflow.Graph, nodeID string, tools workflow.Catalog) (*Editor, error) {
	n, ok := g.Node(nodeID)
	if !ok {
		return nil, workflow.ErrNodeNotFound
	}
	return &Editor{graph: g, nodeID: nodeID, typ: n.Type, tools: tools, drafts: map[string]string{}}, nil
}

// NodeID returns the id of the node being edited.
func (e *Editor) NodeID() string { return e.nodeID }

// Type returns the type of the node being edited.
func (e *Editor) Type() workflow.NodeType { return e.typ }

// Config returns the node's committed config. A config of the wrong shape is
// reported as the type's default.
func (e *Editor) Config() (workflow.Config, error) {
	n, ok := e.graph.Node(e.nodeID)
	if !ok {
		return nil, workflow.ErrNodeNotFound
	}
	if n.Config == nil || n.Config.NodeType() != n.Type {
		return workflow.DefaultConfig(n.Type), nil
	}
	return n.Config, nil
}

// Dirty reports whether any text field holds an uncommitted draft.
func (e *Editor) Dirty() bool { return len(e.drafts) > 0 }

// text returns the draft of field, or committed when it was not edited.
func (e *Editor) text(field, committed string) string {
	if v, ok := e.drafts[field]; ok {
		return v
	}
	return committed
}

// overlay applies the drafts on top of cfg.
func (e *Editor) overlay(cfg workflow.Config) workflow.Config {
	switch c := cfg.(type) {
	case workflow.LLMConfig:
		c.Prompt = e.text("prompt", c.Prompt)
		return c
	case workflow.ConditionalConfig:
		c.Condition = e.text("condition", c.Condition)
		return c
	case workflow.DataConfig:
		c.VariableName = e.text("variableName", c.VariableName)
		c.Value = e.text("value", c.Value)
		return c
	}
	return cfg
}

func (e *Editor) require(t workflow.NodeType) error {
	switch {
	case e.typ == workflow.NodeStart || e.typ == workflow.NodeEnd:
		return ErrNotEditable
	case e.typ != t:
		return fmt.Errorf("%w: %s node", ErrWrongField, e.typ)
	}
	return nil
}

func (e *Editor) commit(cfg workflow.Config) error {
	return e.graph.UpdateNodeConfig(e.nodeID, cfg)
}

// SetPrompt drafts the prompt of an LLM node.
func (e *Editor) SetPrompt(s string) error {
	if err := e.require(workflow.NodeLLM); err != nil {
		return err
	}
	e.drafts["prompt"] = s
	return nil
}

// SetCondition drafts the expression of a Conditional node.
func (e *Editor) SetCondition(s string) error {
	if err := e.require(workflow.NodeConditional); err != nil {
		return err
	}
	e.drafts["condition"] = s
	return nil
}

// SetVariableName drafts the variable name of a Data node.
func (e *Editor) SetVariableName(s string) error {
	if err := e.require(workflow.NodeData); err != nil {
		return err
	}
	e.drafts["variableName"] = s
	return nil
}

// SetValue drafts the value a Data node writes.
func (e *Editor) SetValue(s string) error {
	if err := e.require(workflow.NodeData); err != nil {
		return err
	}
	e.drafts["value"] = s
	return nil
}

// Blur writes the edited text fields back to the node. Fields that were
// not edited keep whatever the config holds now.
func (e *Editor) Blur() error {
	if len(e.drafts) == 0 {
		return nil
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	if err := e.commit(e.overlay(cfg)); err != nil {
		return err
	}
	clear(e.drafts)
	return nil
}

// SetOperation switches a Data node between read and write, writing the
// drafted variable and value along with it.
func (e *Editor) SetOperation(op workflow.DataOperation) error {
	if err := e.require(workflow.NodeData); err != nil {
		return err
	}
	if op != workflow.DataRead && op != workflow.DataWrite {
		return fmt.Errorf("%w: %q", ErrBadOperation, op)
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	c := e.overlay(cfg).(workflow.DataConfig)
	c.Operation = op
	if err := e.commit(c); err != nil {
		return err
	}
	clear(e.drafts)
	return nil
}

// SelectTool points a Tool node at a tool from the catalog and clears its
// parameter bindings. An empty id deselects.
func (e *Editor) SelectTool(id string) error {
	if err := e.require(workflow.NodeTool); err != nil {
		return err
	}
	if id != "" {
		if _, ok := e.tools[id]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownTool, id)
		}
	}
	return e.commit(workflow.ToolConfig{ToolID: id, ParameterValues: map[string]string{}})
}

// SetParameter binds a declared parameter of the selected tool.
func (e *Editor) SetParameter(name, value string) error {
	if err := e.require(workflow.NodeTool); err != nil {
		return err
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	tc := cfg.(workflow.ToolConfig)
	tool, err := e.tool(tc.ToolID)
	if err != nil {
		return err
	}
	if _, ok := tool.Parameter(name); !ok {
		return fmt.Errorf("%w %q", ErrUnknownParameter, name)
	}
	values := maps.Clone(tc.ParameterValues)
	if values == nil {
		values = map[string]string{}
	}
	values[name] = value
	return e.commit(workflow.ToolConfig{ToolID: tc.ToolID, ParameterValues: values})
}

func (e *Editor) tool(id string) (workflow.ToolDescriptor, error) {
	if id == "" {
		return workflow.ToolDescriptor{}, ErrNoToolSelected
	}
	t, ok := e.tools[id]
	if !ok {
		return workflow.ToolDescriptor{}, fmt.Errorf("%w %q", ErrUnknownTool, id)
	}
	return t, nil
}

// Binding pairs a declared tool parameter with its current value.
type Binding struct {
	workflow.ToolParameter
	Value string `json:"value"`
}

// Parameters lists the selected tool's declared parameters with their
// bindings, in declaration order.
func (e *Editor) Parameters() ([]Binding, error) {
	if err := e.require(workflow.NodeTool); err != nil {
		return nil, err
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	tc := cfg.(workflow.ToolConfig)
	tool, err := e.tool(tc.ToolID)
	if err != nil {
		return nil, err
	}
	out := make([]Binding, 0, len(tool.Parameters))
	for _, p := range tool.Parameters {
		out = append(out, Binding{ToolParameter: p, Value: tc.ParameterValues[p.Name]})
	}
	return out, nil
}

// IsReference reports whether a value is a reference token such as
// {session.customerId} rather than a literal.
func IsReference(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) > 2 && strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}")
}
