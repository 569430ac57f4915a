package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(is Issues) []string {
	out := make([]string, 0, len(is))
	for _, i := range is {
		out = append(out, i.Code)
	}
	return out
}

func linear(middle ...Node) *Workflow {
	w := &Workflow{ID: "wf", Nodes: []Node{{ID: "s", Type: NodeStart, Config: StartConfig{}}}}
	prev := "s"
	for _, n := range middle {
		w.Nodes = append(w.Nodes, n)
		w.Edges = append(w.Edges, Edge{ID: prev + "-" + n.ID, Source: prev, Target: n.ID})
		prev = n.ID
	}
	w.Nodes = append(w.Nodes, Node{ID: "e", Type: NodeEnd, Config: EndConfig{}})
	w.Edges = append(w.Edges, Edge{ID: prev + "-e", Source: prev, Target: "e"})
	return w
}

func TestTemplateIsPublishable(t *testing.T) {
	issues := Validate(DefaultTemplate("sales"), NewCatalog(DefaultTools()))
	assert.False(t, issues.HasErrors(), "%v", issues)
	assert.Empty(t, issues)
}

func TestValidateNodeConfigs(t *testing.T) {
	tools := NewCatalog(DefaultTools())
	tests := []struct {
		name  string
		node  Node
		want  string
		error bool
	}{
		{"empty prompt", Node{ID: "n", Type: NodeLLM, Config: LLMConfig{}}, CodeEmptyPrompt, false},
		{"no tool", Node{ID: "n", Type: NodeTool, Config: ToolConfig{}}, CodeNoToolSelected, true},
		{"unknown tool", Node{ID: "n", Type: NodeTool, Config: ToolConfig{ToolID: "tool-9"}}, CodeUnknownTool, true},
		{"missing parameter", Node{ID: "n", Type: NodeTool, Config: ToolConfig{ToolID: "tool-2"}}, CodeMissingParameter, true},
		{"undeclared parameter", Node{ID: "n", Type: NodeTool, Config: ToolConfig{ToolID: "tool-2",
			ParameterValues: map[string]string{"orderId": "1", "extra": "x"}}}, CodeUnknownParameter, false},
		{"empty condition", Node{ID: "n", Type: NodeConditional, Config: ConditionalConfig{}}, CodeEmptyCondition, false},
		{"bad operation", Node{ID: "n", Type: NodeData, Config: DataConfig{Operation: "delete", VariableName: "x"}}, CodeBadDataOperation, true},
		{"missing variable", Node{ID: "n", Type: NodeData, Config: DataConfig{Operation: DataRead}}, CodeMissingVariable, true},
		{"empty write", Node{ID: "n", Type: NodeData, Config: DataConfig{Operation: DataWrite, VariableName: "x"}}, CodeEmptyWriteValue, false},
		{"mismatch", Node{ID: "n", Type: NodeLLM, Config: ConditionalConfig{Condition: "x"}}, CodeConfigMismatch, true},
		{"missing config", Node{ID: "n", Type: NodeLLM}, CodeMissingConfig, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(linear(tt.node), tools)
			require.Equal(t, []string{tt.want}, codes(issues))
			assert.Equal(t, "n", issues[0].NodeID)
			assert.Equal(t, tt.error, issues.HasErrors())
		})
	}
}

func TestValidateWithoutCatalog(t *testing.T) {
	w := linear(Node{ID: "n", Type: NodeTool, Config: ToolConfig{ToolID: "anything"}})
	assert.Empty(t, Validate(w, nil))
}

func TestValidateStructure(t *testing.T) {
	llm := func(id string) Node { return Node{ID: id, Type: NodeLLM, Config: LLMConfig{Prompt: "p"}} }

	t.Run("no start", func(t *testing.T) {
		w := &Workflow{Nodes: []Node{llm("a"), {ID: "e", Type: NodeEnd, Config: EndConfig{}}}}
		assert.Contains(t, codes(Validate(w, nil)), CodeNoStart)
	})

	t.Run("two starts", func(t *testing.T) {
		w := linear(llm("a"))
		w.Nodes = append(w.Nodes, Node{ID: "s2", Type: NodeStart, Config: StartConfig{}})
		assert.Contains(t, codes(Validate(w, nil)), CodeMultipleStarts)
	})

	t.Run("no end", func(t *testing.T) {
		w := &Workflow{Nodes: []Node{{ID: "s", Type: NodeStart, Config: StartConfig{}}}}
		issues := Validate(w, nil)
		assert.Equal(t, []string{CodeNoEnd}, codes(issues))
		assert.False(t, issues.HasErrors())
	})

	t.Run("unreachable", func(t *testing.T) {
		w := linear(llm("a"))
		w.Nodes = append(w.Nodes, llm("island"))
		issues := Validate(w, nil)
		require.Equal(t, []string{CodeUnreachable}, codes(issues))
		assert.Equal(t, "island", issues[0].NodeID)
	})

	t.Run("cycle", func(t *testing.T) {
		w := linear(llm("a"), llm("b"))
		w.Edges = append(w.Edges, Edge{ID: "loop", Source: "b", Target: "a"})
		assert.Equal(t, []string{CodeCycle}, codes(Validate(w, nil)))
	})

	t.Run("bad edges", func(t *testing.T) {
		w := linear(llm("a"))
		w.Edges = append(w.Edges,
			Edge{ID: "dangling", Source: "a", Target: "ghost"},
			Edge{ID: "self", Source: "a", Target: "a"},
			Edge{ID: "into-start", Source: "a", Target: "s"},
			Edge{ID: "out-of-end", Source: "e", Target: "a"},
			Edge{ID: "dup", Source: "s", Target: "a"},
		)
		got := codes(Validate(w, nil))
		for _, want := range []string{CodeDanglingEdge, CodeSelfLoop, CodeEdgeIntoStart, CodeEdgeOutOfEnd, CodeDuplicateEdge} {
			assert.Contains(t, got, want)
		}
	})

	t.Run("duplicate node and unknown type", func(t *testing.T) {
		w := linear(llm("a"))
		w.Nodes = append(w.Nodes, llm("a"), Node{ID: "x", Type: "Webhook"})
		got := codes(Validate(w, nil))
		assert.Contains(t, got, CodeDuplicateNode)
		assert.Contains(t, got, CodeUnknownNodeType)
	})
}

func TestValidationError(t *testing.T) {
	issues := Validate(&Workflow{}, nil)
	err := &ValidationError{Issues: issues}
	assert.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "no start node")
}

func TestSeverityText(t *testing.T) {
	b, err := SeverityError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(b))
	assert.Equal(t, "warning", SeverityWarning.String())
}
