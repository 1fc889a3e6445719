package domain

// Position is a zero-based line/character location in a document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range spans two positions in a document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Param is a declared task or workflow input/output.
type Param struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
	Default  string `json:"default,omitempty"`
}

// ImportDecl is an import statement found in a document.
type ImportDecl struct {
	Path  string `json:"path"`
	Alias string `json:"alias,omitempty"`
	Range Range  `json:"range"`
}

// TaskDecl is a task definition found in a document.
type TaskDecl struct {
	Name    string  `json:"name"`
	Inputs  []Param `json:"inputs,omitempty"`
	Outputs []Param `json:"outputs,omitempty"`
	Range   Range   `json:"range"`
}

// WorkflowDecl is a workflow definition found in a document.
type WorkflowDecl struct {
	Name    string   `json:"name"`
	Inputs  []Param  `json:"inputs,omitempty"`
	Outputs []Param  `json:"outputs,omitempty"`
	Calls   []string `json:"calls,omitempty"`
	Range   Range    `json:"range"`
}

// Document is the parser's view of a single source file.
type Document struct {
	Version   string         `json:"version,omitempty"`
	Imports   []ImportDecl   `json:"imports,omitempty"`
	Tasks     []TaskDecl     `json:"tasks,omitempty"`
	Workflows []WorkflowDecl `json:"workflows,omitempty"`
}
