package message

// ToolSchema is the wire-level shape of a single tool input parameter,
// generalized from the teacher's generators.Var/Vars (generators/var.go):
// name, declared type, optional flag, description, and recursive item/
// property schemas for arrays and objects.
type ToolSchema struct {
	Name        string                `json:"name"`
	Type        string                `json:"type"`
	Optional    bool                  `json:"optional"`
	Description string                `json:"description"`
	Items       *ToolSchema           `json:"items,omitempty"`
	Properties  map[string]ToolSchema `json:"properties,omitempty"`
}

// ToolDescriptor is what a Provider needs to advertise a callable tool to a
// model: name, description, input schema, and the declared output type.
// This mirrors the teacher's generators.FuncDecl (generators/func_decl.go)
// generalized away from its ToGemini/ToOpenAI methods — wire conversion now
// lives in package provider, next to the HTTP request shapes it serves.
type ToolDescriptor struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Inputs      map[string]ToolSchema `json:"inputs"`
	OutputType  string                `json:"output_type"`
}
