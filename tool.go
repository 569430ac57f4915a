package workflow

// ParameterType is the declared JSON type of a tool parameter.
type ParameterType string

const (
	ParamString  ParameterType = "string"
	ParamNumber  ParameterType = "number"
	ParamBoolean ParameterType = "boolean"
	ParamObject  ParameterType = "object"
	ParamArray   ParameterType = "array"
)

// ToolParameter declares one input of an external tool.
type ToolParameter struct {
	Name     string        `json:"name" toml:"name"`
	Type     ParameterType `json:"type" toml:"type"`
	Required bool          `json:"required" toml:"required"`
}

// ToolDescriptor describes an external API tool a Tool node can call.
// The builder only reads descriptors; it never invokes the tool.
type ToolDescriptor struct {
	ID          string          `json:"id" toml:"id"`
	Name        string          `json:"name" toml:"name"`
	Description string          `json:"description" toml:"description"`
	Endpoint    string          `json:"endpoint,omitempty" toml:"endpoint"`
	HTTPMethod  string          `json:"httpMethod,omitempty" toml:"http_method"`
	Parameters  []ToolParameter `json:"parameters" toml:"parameters"`
}

// Parameter returns the declared parameter with the given name.
func (d ToolDescriptor) Parameter(name string) (ToolParameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ToolParameter{}, false
}

// Catalog is the set of tools offered to the config editor, keyed by id.
type Catalog map[string]ToolDescriptor

// NewCatalog indexes tools by id. Later duplicates win.
func NewCatalog(tools []ToolDescriptor) Catalog {
	c := make(Catalog, len(tools))
	for _, t := range tools {
		c[t.ID] = t
	}
	return c
}
