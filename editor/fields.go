package editor

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/meikuraledutech/workflow"
)

// FieldKind tells a front end which input to render.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextArea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
)

// Field describes one input of the config panel.
type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Value    string    `json:"value"`
	Options  []Option  `json:"options,omitempty"`
	Required bool      `json:"required,omitempty"`
}

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Fields describes the config panel for the node, showing drafts for text
// fields. Start and End nodes have none.
func (e *Editor) Fields() ([]Field, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	b := &fieldBuilder{e: e, fields: []Field{}}
	cfg.Accept(b)
	return b.fields, nil
}

type fieldBuilder struct {
	e      *Editor
	fields []Field
}

func (b *fieldBuilder) VisitStart(workflow.StartConfig) {}
func (b *fieldBuilder) VisitEnd(workflow.EndConfig)     {}

func (b *fieldBuilder) VisitLLM(c workflow.LLMConfig) {
	b.fields = append(b.fields, Field{Name: "prompt", Label: "LLM Prompt", Kind: FieldTextArea, Value: b.e.text("prompt", c.Prompt)})
}

func (b *fieldBuilder) VisitConditional(c workflow.ConditionalConfig) {
	b.fields = append(b.fields, Field{Name: "condition", Label: "Condition Logic", Kind: FieldText, Value: b.e.text("condition", c.Condition)})
}

func (b *fieldBuilder) VisitTool(c workflow.ToolConfig) {
	opts := make([]Option, 0, len(b.e.tools))
	for _, id := range sortedToolIDs(b.e.tools) {
		opts = append(opts, Option{Value: id, Label: b.e.tools[id].Name})
	}
	b.fields = append(b.fields, Field{Name: "toolId", Label: "Select API Tool", Kind: FieldSelect, Value: c.ToolID, Options: opts})

	tool, ok := b.e.tools[c.ToolID]
	if !ok {
		return
	}
	for _, p := range tool.Parameters {
		b.fields = append(b.fields, Field{
			Name:     "param:" + p.Name,
			Label:    p.Name,
			Kind:     FieldText,
			Value:    c.ParameterValues[p.Name],
			Required: p.Required,
		})
	}
}

func (b *fieldBuilder) VisitData(c workflow.DataConfig) {
	b.fields = append(b.fields,
		Field{Name: "operation", Label: "Operation", Kind: FieldSelect, Value: string(c.Operation), Options: []Option{
			{Value: string(workflow.DataWrite), Label: "Write to Memory"},
			{Value: string(workflow.DataRead), Label: "Read from Memory"},
		}},
		Field{Name: "variableName", Label: "Variable Name", Kind: FieldText, Value: b.e.text("variableName", c.VariableName), Required: true},
	)
	if c.Operation == workflow.DataWrite {
		b.fields = append(b.fields, Field{Name: "value", Label: "Value to Write", Kind: FieldText, Value: b.e.text("value", c.Value)})
	}
}

// Set applies a value to the field with the given name, as listed by Fields.
// Text fields are drafted; select fields and tool parameters are committed.
func (e *Editor) Set(field, value string) error {
	switch field {
	case "prompt":
		return e.SetPrompt(value)
	case "condition":
		return e.SetCondition(value)
	case "variableName":
		return e.SetVariableName(value)
	case "value":
		return e.SetValue(value)
	case "operation":
		return e.SetOperation(workflow.DataOperation(value))
	case "toolId":
		return e.SelectTool(value)
	}
	if name, ok := strings.CutPrefix(field, "param:"); ok {
		return e.SetParameter(name, value)
	}
	return fmt.Errorf("%w: %q", ErrWrongField, field)
}

func sortedToolIDs(c workflow.Catalog) []string {
	return slices.Sorted(maps.Keys(c))
}
