package workflow

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// The wire shape matches the builder front end:
//
//	{"id":"llm-1","type":"LLM","position":{"x":250,"y":200},
//	 "data":{"title":"Qualify Lead","description":"...","config":{"prompt":"..."}}}
type nodeJSON struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     nodeData `json:"data"`
}

type nodeData struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
}

// MarshalJSON encodes the node in the front-end wire shape.
func (n Node) MarshalJSON() ([]byte, error) {
	cfg, err := EncodeConfig(n.Config)
	if err != nil {
		return nil, fmt.Errorf("workflow: encode config of %s: %w", n.ID, err)
	}
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		Data: nodeData{
			Title:       n.Title,
			Description: n.Description,
			Config:      cfg,
		},
	})
}

// UnmarshalJSON decodes the node, choosing the config shape from its type.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := ParseNodeType(string(raw.Type))
	if err != nil {
		return err
	}
	cfg, err := DecodeConfig(t, raw.Data.Config)
	if err != nil {
		return fmt.Errorf("workflow: node %s: %w", raw.ID, err)
	}
	*n = Node{
		ID:          raw.ID,
		Type:        t,
		Position:    raw.Position,
		Title:       raw.Data.Title,
		Description: raw.Data.Description,
		Config:      cfg,
	}
	return nil
}

// EncodeConfig returns the JSON form of a config payload. Nil encodes as {}.
func EncodeConfig(c Config) ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// DecodeConfig parses a config payload for a node of type t. An empty or
// null payload yields the type's default config.
func DecodeConfig(t NodeType, b []byte) (Config, error) {
	if !t.Valid() {
		return nil, unknownType(string(t))
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return DefaultConfig(t), nil
	}

	var (
		cfg Config
		err error
	)
	switch t {
	case NodeLLM:
		var c LLMConfig
		err = json.Unmarshal(b, &c)
		cfg = c
	case NodeTool:
		var c ToolConfig
		err = json.Unmarshal(b, &c)
		cfg = c
	case NodeConditional:
		var c ConditionalConfig
		err = json.Unmarshal(b, &c)
		cfg = c
	case NodeData:
		var c DataConfig
		err = json.Unmarshal(b, &c)
		if c.Operation == "" {
			c.Operation = DataWrite
		}
		cfg = c
	case NodeStart:
		var m map[string]any
		err = json.Unmarshal(b, &m)
		cfg = StartConfig{}
	case NodeEnd:
		var m map[string]any
		err = json.Unmarshal(b, &m)
		cfg = EndConfig{}
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s config: %w", t, err)
	}
	return cfg, nil
}

type toolConfigJSON struct {
	ToolID          *string           `json:"toolId"`
	ParameterValues map[string]string `json:"parameterValues"`
}

// MarshalJSON writes a null toolId when no tool is selected.
func (c ToolConfig) MarshalJSON() ([]byte, error) {
	out := toolConfigJSON{ParameterValues: c.ParameterValues}
	if c.ToolID != "" {
		out.ToolID = &c.ToolID
	}
	if out.ParameterValues == nil {
		out.ParameterValues = map[string]string{}
	}
	return json.Marshal(out)
}

func (c *ToolConfig) UnmarshalJSON(b []byte) error {
	var in toolConfigJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	c.ToolID = ""
	if in.ToolID != nil {
		c.ToolID = *in.ToolID
	}
	c.ParameterValues = in.ParameterValues
	if c.ParameterValues == nil {
		c.ParameterValues = map[string]string{}
	}
	return nil
}

// MarshalJSON encodes empty configs as {} rather than null.
func (StartConfig) MarshalJSON() ([]byte, error) { return []byte("{}"), nil }

func (EndConfig) MarshalJSON() ([]byte, error) { return []byte("{}"), nil }
