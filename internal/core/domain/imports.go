package domain

import (
	"slices"
	"strings"
	"time"
)

// TaskInfo is a task made visible to an importing document.
type TaskInfo struct {
	// Name is the task name qualified by every alias on the import chain.
	Name string `json:"name"`
	// BaseName is the unqualified task name as declared in its source file.
	BaseName  string         `json:"baseName"`
	SourceURI InternedString `json:"sourceUri"`
	Inputs    []Param        `json:"inputs,omitempty"`
	Outputs   []Param        `json:"outputs,omitempty"`
	Range     Range          `json:"range"`
}

// Qualified returns a copy of the task with alias prepended to its name.
// An empty alias leaves the name unchanged.
func (t TaskInfo) Qualified(alias string) TaskInfo {
	if t.BaseName == "" {
		t.BaseName = LastSegment(t.Name)
	}
	if alias != "" {
		t.Name = alias + "." + t.Name
	}
	t.Inputs = slices.Clone(t.Inputs)
	t.Outputs = slices.Clone(t.Outputs)
	return t
}

// LastSegment returns the part of a dotted name after the final dot.
func LastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// CachedImport is the result of resolving one import, shared by both cache layers.
type CachedImport struct {
	ResolvedURI  string     `json:"resolvedUri"`
	OriginalPath string     `json:"originalPath"`
	Alias        string     `json:"alias,omitempty"`
	Tasks        []TaskInfo `json:"tasks"`
	SourceMTime  time.Time  `json:"sourceMTime"`
	// Dependencies is the sorted set of every file visited while resolving
	// this import, including ResolvedURI itself.
	Dependencies []string `json:"dependencies"`
	// Height is the length of the longest import chain rooted at this
	// file, counting the file itself as 1.
	Height   int       `json:"height"`
	Errors   []string  `json:"errors,omitempty"`
	CachedAt time.Time `json:"cachedAt"`
}

// DependsOn reports whether uri is the entry itself or one of its dependencies.
func (c *CachedImport) DependsOn(uri string) bool {
	if c.ResolvedURI == uri {
		return true
	}
	return slices.Contains(c.Dependencies, uri)
}

// ImportCacheKey identifies a resolution of uri under alias.
// The alias is part of the key because it changes the qualified task names.
func ImportCacheKey(uri, alias string) string {
	if alias == "" {
		return uri
	}
	return uri + "#" + alias
}

// DependencySet is an immutable set of URIs.
// With returns a new set so that sibling branches of a traversal never observe
// each other's additions.
type DependencySet struct {
	members map[string]struct{}
}

// NewDependencySet creates a set containing uris.
func NewDependencySet(uris ...string) DependencySet {
	members := make(map[string]struct{}, len(uris))
	for _, u := range uris {
		members[u] = struct{}{}
	}
	return DependencySet{members: members}
}

// Contains reports whether uri is in the set.
func (s DependencySet) Contains(uri string) bool {
	_, ok := s.members[uri]
	return ok
}

// With returns a copy of the set with uri added.
func (s DependencySet) With(uri string) DependencySet {
	members := make(map[string]struct{}, len(s.members)+1)
	for u := range s.members {
		members[u] = struct{}{}
	}
	members[uri] = struct{}{}
	return DependencySet{members: members}
}

// Len returns the number of members.
func (s DependencySet) Len() int {
	return len(s.members)
}

// Sorted returns the members in ascending order.
func (s DependencySet) Sorted() []string {
	out := make([]string, 0, len(s.members))
	for u := range s.members {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}
