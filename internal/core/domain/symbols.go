package domain

import "time"

// TaskSymbol is a task declared in an analyzed document.
type TaskSymbol struct {
	Name    string  `json:"name"`
	URI     string  `json:"uri"`
	Inputs  []Param `json:"inputs,omitempty"`
	Outputs []Param `json:"outputs,omitempty"`
	Range   Range   `json:"range"`
}

// WorkflowSymbol is a workflow declared in an analyzed document.
type WorkflowSymbol struct {
	Name    string   `json:"name"`
	URI     string   `json:"uri"`
	Inputs  []Param  `json:"inputs,omitempty"`
	Outputs []Param  `json:"outputs,omitempty"`
	Calls   []string `json:"calls,omitempty"`
	Range   Range    `json:"range"`
}

// SymbolTable holds the symbols of one analyzed document.
type SymbolTable struct {
	URI       string                    `json:"uri"`
	Tasks     map[string]TaskSymbol     `json:"tasks"`
	Workflows map[string]WorkflowSymbol `json:"workflows"`
	// LastModifiedPerFile records the mtime of every file the table was built from.
	LastModifiedPerFile map[string]time.Time `json:"lastModifiedPerFile"`
}

// NewSymbolTable creates an empty table for uri.
func NewSymbolTable(uri string) *SymbolTable {
	return &SymbolTable{
		URI:                 uri,
		Tasks:               make(map[string]TaskSymbol),
		Workflows:           make(map[string]WorkflowSymbol),
		LastModifiedPerFile: make(map[string]time.Time),
	}
}

// FreshFor reports whether the table is still valid for a file last modified at mtime.
func (t *SymbolTable) FreshFor(uri string, mtime time.Time) bool {
	recorded, ok := t.LastModifiedPerFile[uri]
	if !ok {
		return false
	}
	return !mtime.After(recorded)
}

// References reports whether the table was built from uri.
func (t *SymbolTable) References(uri string) bool {
	if t.URI == uri {
		return true
	}
	_, ok := t.LastModifiedPerFile[uri]
	return ok
}
