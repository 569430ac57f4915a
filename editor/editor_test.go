package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
)

func setup(t *testing.T, typ workflow.NodeType, cfg workflow.Config) (*workflow.Graph, *Editor) {
	t.Helper()
	g := workflow.NewGraph()
	id, err := g.AddNode(typ, workflow.Position{}, cfg)
	require.NoError(t, err)
	e, err := Open(g, id, workflow.NewCatalog(workflow.DefaultTools()))
	require.NoError(t, err)
	return g, e
}

func config(t *testing.T, g *workflow.Graph, e *Editor) workflow.Config {
	t.Helper()
	n, ok := g.Node(e.NodeID())
	require.True(t, ok)
	return n.Config
}

func TestOpenMissingNode(t *testing.T) {
	_, err := Open(workflow.NewGraph(), "ghost", nil)
	assert.ErrorIs(t, err, workflow.ErrNodeNotFound)
}

func TestPromptCommitsOnBlur(t *testing.T) {
	g, e := setup(t, workflow.NodeLLM, workflow.LLMConfig{Prompt: "old"})
	assert.Equal(t, workflow.NodeLLM, e.Type())

	require.NoError(t, e.SetPrompt("new"))
	assert.Equal(t, workflow.LLMConfig{Prompt: "old"}, config(t, g, e), "drafts are not visible before blur")

	require.NoError(t, e.Blur())
	assert.Equal(t, workflow.LLMConfig{Prompt: "new"}, config(t, g, e))
}

func TestConditionCommitsOnBlur(t *testing.T) {
	g, e := setup(t, workflow.NodeConditional, nil)
	require.NoError(t, e.Set("condition", "user.score > 7"))
	require.NoError(t, e.Blur())
	assert.Equal(t, workflow.ConditionalConfig{Condition: "user.score > 7"}, config(t, g, e))
}

func TestFieldTypeChecks(t *testing.T) {
	_, start := setup(t, workflow.NodeStart, nil)
	assert.ErrorIs(t, start.SetPrompt("x"), ErrNotEditable)
	fields, err := start.Fields()
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.NoError(t, start.Blur())

	_, llm := setup(t, workflow.NodeLLM, nil)
	assert.ErrorIs(t, llm.SetCondition("x"), ErrWrongField)
	assert.ErrorIs(t, llm.SelectTool("tool-1"), ErrWrongField)
	assert.ErrorIs(t, llm.SetOperation(workflow.DataRead), ErrWrongField)
	assert.ErrorIs(t, llm.Set("bogus", "x"), ErrWrongField)
}

func TestSelectToolResetsParameters(t *testing.T) {
	g, e := setup(t, workflow.NodeTool, nil)

	require.NoError(t, e.SelectTool("tool-3"))
	require.NoError(t, e.SetParameter("customerId", "{session.customerId}"))
	assert.Equal(t, workflow.ToolConfig{
		ToolID:          "tool-3",
		ParameterValues: map[string]string{"customerId": "{session.customerId}"},
	}, config(t, g, e))

	require.NoError(t, e.SelectTool("tool-1"))
	assert.Equal(t, workflow.ToolConfig{ToolID: "tool-1", ParameterValues: map[string]string{}}, config(t, g, e))

	assert.ErrorIs(t, e.SelectTool("tool-9"), ErrUnknownTool)
	assert.Equal(t, "tool-1", config(t, g, e).(workflow.ToolConfig).ToolID, "a rejected selection changes nothing")

	assert.ErrorIs(t, e.SetParameter("orderId", "1"), ErrUnknownParameter)

	require.NoError(t, e.SelectTool(""))
	assert.ErrorIs(t, e.SetParameter("customerId", "1"), ErrNoToolSelected)
}

func TestParameters(t *testing.T) {
	_, e := setup(t, workflow.NodeTool, workflow.ToolConfig{
		ToolID:          "tool-3",
		ParameterValues: map[string]string{"dateTime": "{session.time}"},
	})
	params, err := e.Parameters()
	require.NoError(t, err)
	require.Len(t, params, 3)
	assert.Equal(t, "customerId", params[0].Name)
	assert.True(t, params[0].Required)
	assert.Empty(t, params[0].Value)
	assert.Equal(t, "{session.time}", params[1].Value)
	assert.False(t, params[2].Required)
}

func TestBlurKeepsOutsideUpdates(t *testing.T) {
	t.Run("untouched field", func(t *testing.T) {
		g, e := setup(t, workflow.NodeLLM, workflow.LLMConfig{Prompt: "old"})
		require.NoError(t, g.UpdateNodeConfig(e.NodeID(), workflow.LLMConfig{Prompt: "replaced"}))

		fields, err := e.Fields()
		require.NoError(t, err)
		assert.Equal(t, "replaced", fields[0].Value)

		assert.False(t, e.Dirty())
		require.NoError(t, e.Blur())
		assert.Equal(t, workflow.LLMConfig{Prompt: "replaced"}, config(t, g, e))
	})

	t.Run("only edited fields are written", func(t *testing.T) {
		g, e := setup(t, workflow.NodeData, workflow.DataConfig{Operation: workflow.DataWrite, VariableName: "a", Value: "1"})
		require.NoError(t, e.SetValue("2"))
		require.NoError(t, g.UpdateNodeConfig(e.NodeID(), workflow.DataConfig{Operation: workflow.DataWrite, VariableName: "b", Value: "1"}))

		require.NoError(t, e.Blur())
		assert.Equal(t, workflow.DataConfig{Operation: workflow.DataWrite, VariableName: "b", Value: "2"}, config(t, g, e))
		assert.False(t, e.Dirty())
	})

	t.Run("operation switch", func(t *testing.T) {
		g, e := setup(t, workflow.NodeData, workflow.DataConfig{Operation: workflow.DataWrite, VariableName: "a", Value: "1"})
		require.NoError(t, g.UpdateNodeConfig(e.NodeID(), workflow.DataConfig{Operation: workflow.DataWrite, VariableName: "b", Value: "9"}))

		require.NoError(t, e.SetOperation(workflow.DataRead))
		assert.Equal(t, workflow.DataConfig{Operation: workflow.DataRead, VariableName: "b", Value: "9"}, config(t, g, e))
	})
}

func TestDataOperation(t *testing.T) {
	g, e := setup(t, workflow.NodeData, nil)
	assert.Equal(t, workflow.DataConfig{Operation: workflow.DataWrite}, config(t, g, e))

	require.NoError(t, e.SetVariableName("customer_name"))
	require.NoError(t, e.SetValue("Ada"))
	require.NoError(t, e.SetOperation(workflow.DataRead))
	assert.Equal(t, workflow.DataConfig{
		Operation:    workflow.DataRead,
		VariableName: "customer_name",
		Value:        "Ada",
	}, config(t, g, e), "switching the operation carries the drafts along")

	assert.ErrorIs(t, e.SetOperation("delete"), ErrBadOperation)
}

func TestFields(t *testing.T) {
	t.Run("tool", func(t *testing.T) {
		_, e := setup(t, workflow.NodeTool, workflow.ToolConfig{ToolID: "tool-2"})
		fields, err := e.Fields()
		require.NoError(t, err)
		require.Len(t, fields, 2)

		assert.Equal(t, "toolId", fields[0].Name)
		assert.Equal(t, FieldSelect, fields[0].Kind)
		assert.Equal(t, "tool-2", fields[0].Value)
		require.Len(t, fields[0].Options, 4)
		assert.Equal(t, "tool-1", fields[0].Options[0].Value)
		assert.Equal(t, "updateCRMRecord", fields[0].Options[0].Label)

		assert.Equal(t, "param:orderId", fields[1].Name)
		assert.True(t, fields[1].Required)

		require.NoError(t, e.Set(fields[1].Name, "{order.id}"))
		fields, _ = e.Fields()
		assert.Equal(t, "{order.id}", fields[1].Value)
	})

	t.Run("data", func(t *testing.T) {
		_, e := setup(t, workflow.NodeData, nil)
		fields, err := e.Fields()
		require.NoError(t, err)
		require.Len(t, fields, 3, "write shows the value field")

		require.NoError(t, e.Set("operation", "read"))
		fields, _ = e.Fields()
		require.Len(t, fields, 2)
		assert.Equal(t, "read", fields[0].Value)
	})

	t.Run("llm shows draft", func(t *testing.T) {
		_, e := setup(t, workflow.NodeLLM, nil)
		require.NoError(t, e.SetPrompt("draft"))
		fields, err := e.Fields()
		require.NoError(t, err)
		require.Len(t, fields, 1)
		assert.Equal(t, FieldTextArea, fields[0].Kind)
		assert.Equal(t, "draft", fields[0].Value)
	})
}

func TestMismatchedConfigReadsAsDefault(t *testing.T) {
	g, e := setup(t, workflow.NodeLLM, nil)
	require.NoError(t, g.UpdateNodeConfig(e.NodeID(), workflow.ConditionalConfig{Condition: "x"}))

	cfg, err := e.Config()
	require.NoError(t, err)
	assert.Equal(t, workflow.LLMConfig{}, cfg)

	require.NoError(t, e.SetPrompt("fixed"))
	require.NoError(t, e.Blur())
	assert.Equal(t, workflow.LLMConfig{Prompt: "fixed"}, config(t, g, e))
}

func TestDeletedNode(t *testing.T) {
	g, e := setup(t, workflow.NodeLLM, nil)
	require.NoError(t, e.SetPrompt("lost"))
	g.DeleteNode(e.NodeID())
	assert.ErrorIs(t, e.Blur(), workflow.ErrNodeNotFound)
	_, err := e.Fields()
	assert.ErrorIs(t, err, workflow.ErrNodeNotFound)
}

func TestIsReference(t *testing.T) {
	tests := map[string]bool{
		"{session.customerId}": true,
		" {x} ":                true,
		"{}":                   false,
		"literal":              false,
		"{open":                false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsReference(in), in)
	}
}
