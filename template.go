package workflow

// DefaultTemplate returns the starter workflow a builder opens when nothing is
// stored for the requested id: a lead qualification flow that branches on a
// condition, books a demo or nurtures, then logs to the CRM.
func DefaultTemplate(id string) *Workflow {
	return &Workflow{
		ID:   id,
		Name: "Sales Qualification",
		Nodes: []Node{
			{ID: "start", Type: NodeStart, Position: Position{50, 200}, Title: "Start", Description: "Trigger for sales workflow", Config: StartConfig{}},
			{ID: "llm-qualify", Type: NodeLLM, Position: Position{250, 200}, Title: "Qualify Lead", Description: "Ask qualifying questions to the user.",
				Config: LLMConfig{Prompt: "To find the best solution for you, could you tell me about your team size and current challenges?"}},
			{ID: "cond-is-qualified", Type: NodeConditional, Position: Position{450, 200}, Title: "Is Lead Qualified?", Description: "Routes based on qualification status.",
				Config: ConditionalConfig{Condition: "user.interest_score > 7"}},
			{ID: "tool-schedule-demo", Type: NodeTool, Position: Position{650, 100}, Title: "Schedule Demo", Description: "Calls API to schedule a product demo.",
				Config: ToolConfig{ToolID: "tool-3", ParameterValues: map[string]string{
					"customerId": "{session.customerId}",
					"dateTime":   "{session.requestedTime}",
				}}},
			{ID: "llm-not-qualified", Type: NodeLLM, Position: Position{650, 300}, Title: "Nurture Lead", Description: "Provide resources for non-qualified leads.",
				Config: LLMConfig{Prompt: "Thanks for the information. Here are some resources that might be helpful for now..."}},
			{ID: "tool-update-crm", Type: NodeTool, Position: Position{850, 200}, Title: "Update CRM Record", Description: "Log interaction summary to CRM.",
				Config: ToolConfig{ToolID: "tool-1", ParameterValues: map[string]string{
					"customerId":         "{session.customerId}",
					"interactionSummary": "{session.interactionSummary}",
				}}},
			{ID: "end", Type: NodeEnd, Position: Position{1050, 200}, Title: "End", Description: "End of workflow.", Config: EndConfig{}},
		},
		Edges: []Edge{
			{ID: "e-start-qualify", Source: "start", Target: "llm-qualify"},
			{ID: "e-qualify-cond", Source: "llm-qualify", Target: "cond-is-qualified"},
			{ID: "e-cond-schedule", Source: "cond-is-qualified", Target: "tool-schedule-demo", Label: "Yes"},
			{ID: "e-cond-nurture", Source: "cond-is-qualified", Target: "llm-not-qualified", Label: "No"},
			{ID: "e-schedule-crm", Source: "tool-schedule-demo", Target: "tool-update-crm"},
			{ID: "e-nurture-crm", Source: "llm-not-qualified", Target: "tool-update-crm"},
			{ID: "e-crm-end", Source: "tool-update-crm", Target: "end"},
		},
	}
}

// DefaultTools returns the tool descriptors the default template refers to.
func DefaultTools() []ToolDescriptor {
	return []ToolDescriptor{
		{ID: "tool-1", Name: "updateCRMRecord", Description: "Updates a customer record in the CRM system.",
			Endpoint: "https://api.crm.com/v1/customers/{customerId}", HTTPMethod: "PUT",
			Parameters: []ToolParameter{{Name: "customerId", Type: ParamString, Required: true}, {Name: "interactionSummary", Type: ParamObject, Required: true}}},
		{ID: "tool-2", Name: "getOrderStatus", Description: "Retrieves the status of an order by its ID.",
			Endpoint: "https://api.ecommerce.com/v2/orders/{orderId}", HTTPMethod: "GET",
			Parameters: []ToolParameter{{Name: "orderId", Type: ParamString, Required: true}}},
		{ID: "tool-3", Name: "scheduleAppointment", Description: "Books a new appointment for a customer.",
			Endpoint: "https://api.scheduler.com/appointments", HTTPMethod: "POST",
			Parameters: []ToolParameter{
				{Name: "customerId", Type: ParamString, Required: true},
				{Name: "dateTime", Type: ParamString, Required: true},
				{Name: "duration", Type: ParamNumber, Required: false},
			}},
		{ID: "tool-4", Name: "searchKnowledgeBase", Description: "Searches the internal knowledge base for articles related to a query.",
			Endpoint: "https://api.internal-kb.com/search", HTTPMethod: "GET",
			Parameters: []ToolParameter{{Name: "query", Type: ParamString, Required: true}, {Name: "filterByCategory", Type: ParamString, Required: false}}},
	}
}
