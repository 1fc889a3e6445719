// Package wdl provides a declaration scanner for WDL documents.
//
// The scanner recognises version statements, imports, tasks and workflows
// with their input and output sections and workflow calls. It does not
// evaluate expressions or check types.
package wdl

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	versionRe  = regexp.MustCompile(`^version\s+(\S+)`)
	importRe   = regexp.MustCompile(`^import\s+"([^"]+)"(?:\s+as\s+([A-Za-z_]\w*))?`)
	taskRe     = regexp.MustCompile(`^task\s+([A-Za-z_]\w*)\s*\{`)
	workflowRe = regexp.MustCompile(`^workflow\s+([A-Za-z_]\w*)\s*\{`)
	sectionRe  = regexp.MustCompile(`^(input|output)\s*\{`)
	callRe     = regexp.MustCompile(`^call\s+([A-Za-z_][\w.]*)`)
	declRe     = regexp.MustCompile(`^([A-Za-z]\w*(?:\[[^=]*\])?[?+]*)\s+([A-Za-z_]\w*)(?:\s*=\s*(.+))?$`)
)

type frameKind int

const (
	frameOther frameKind = iota
	frameTask
	frameWorkflow
	frameInput
	frameOutput
)

type frame struct {
	kind frameKind
}

// Scanner implements ports.Parser.
type Scanner struct{}

var _ ports.Parser = (*Scanner)(nil)

// New returns a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// Parse scans content and returns its declarations.
func (s *Scanner) Parse(uri string, content []byte) (*domain.Document, error) {
	st := &state{doc: &domain.Document{}}

	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 0; sc.Scan(); n++ {
		st.line(n, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrParseFailed.Error()), "uri", uri)
	}

	if st.heredoc || len(st.stack) > 0 {
		return st.doc, zerr.With(zerr.With(domain.ErrParseFailed, "uri", uri), "reason", "unterminated block")
	}
	return st.doc, nil
}

type state struct {
	doc      *domain.Document
	stack    []frame
	heredoc  bool
	task     *domain.TaskDecl
	workflow *domain.WorkflowDecl
}

func (st *state) line(n int, raw string) {
	if st.heredoc {
		if strings.Contains(raw, ">>>") {
			st.heredoc = false
		}
		return
	}

	text := stripComment(raw)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	col := strings.Index(text, trimmed)

	// kind is the frame opened by the first brace on the line.
	kind := frameOther

	switch top := st.top(); {
	case top == nil:
		if m := versionRe.FindStringSubmatch(trimmed); m != nil {
			st.doc.Version = m[1]
			return
		}
		if m := importRe.FindStringSubmatch(trimmed); m != nil {
			st.doc.Imports = append(st.doc.Imports, domain.ImportDecl{
				Path:  m[1],
				Alias: m[2],
				Range: lineRange(n, col, col+len(trimmed)),
			})
			return
		}
		if m := taskRe.FindStringSubmatch(trimmed); m != nil {
			st.doc.Tasks = append(st.doc.Tasks, domain.TaskDecl{
				Name:  m[1],
				Range: domain.Range{Start: domain.Position{Line: n, Character: col}},
			})
			st.task = &st.doc.Tasks[len(st.doc.Tasks)-1]
			kind = frameTask
		}
		if m := workflowRe.FindStringSubmatch(trimmed); m != nil {
			st.doc.Workflows = append(st.doc.Workflows, domain.WorkflowDecl{
				Name:  m[1],
				Range: domain.Range{Start: domain.Position{Line: n, Character: col}},
			})
			st.workflow = &st.doc.Workflows[len(st.doc.Workflows)-1]
			kind = frameWorkflow
		}
	case top.kind == frameInput || top.kind == frameOutput:
		if m := declRe.FindStringSubmatch(trimmed); m != nil {
			st.addParam(top.kind, m[1], m[2], strings.TrimSpace(m[3]))
		}
	default:
		if m := sectionRe.FindStringSubmatch(trimmed); m != nil && (top.kind == frameTask || top.kind == frameWorkflow) {
			kind = frameInput
			if m[1] == "output" {
				kind = frameOutput
			}
		}
		if st.workflow != nil {
			if m := callRe.FindStringSubmatch(trimmed); m != nil {
				st.workflow.Calls = append(st.workflow.Calls, m[1])
			}
		}
		if strings.HasPrefix(trimmed, "command") && strings.Contains(trimmed, "<<<") {
			st.heredoc = !strings.Contains(trimmed[strings.Index(trimmed, "<<<")+3:], ">>>")
			return
		}
	}

	st.braces(n, text, kind)
}

// braces pushes and pops frames for every brace on the line outside string
// literals.
func (st *state) braces(n int, text string, first frameKind) {
	opened := false
	var quote rune
	for i, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '{':
			kind := frameOther
			if !opened {
				kind = first
				opened = true
			}
			st.stack = append(st.stack, frame{kind: kind})
		case r == '}':
			st.pop(domain.Position{Line: n, Character: i + 1})
		}
	}
}

func (st *state) pop(end domain.Position) {
	if len(st.stack) == 0 {
		return
	}
	f := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]

	switch f.kind {
	case frameTask:
		st.task.Range.End = end
		st.task = nil
	case frameWorkflow:
		st.workflow.Range.End = end
		st.workflow = nil
	default:
	}
}

func (st *state) top() *frame {
	if len(st.stack) == 0 {
		return nil
	}
	return &st.stack[len(st.stack)-1]
}

func (st *state) addParam(kind frameKind, typ, name, def string) {
	p := domain.Param{
		Name:     name,
		Type:     strings.Join(strings.Fields(typ), " "),
		Optional: strings.HasSuffix(typ, "?") || (kind == frameInput && def != ""),
		Default:  def,
	}

	switch {
	case st.task != nil && kind == frameInput:
		st.task.Inputs = append(st.task.Inputs, p)
	case st.task != nil:
		st.task.Outputs = append(st.task.Outputs, p)
	case st.workflow != nil && kind == frameInput:
		st.workflow.Inputs = append(st.workflow.Inputs, p)
	case st.workflow != nil:
		st.workflow.Outputs = append(st.workflow.Outputs, p)
	}
}

func stripComment(line string) string {
	var quote rune
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '#':
			return line[:i]
		}
	}
	return line
}

func lineRange(line, start, end int) domain.Range {
	return domain.Range{
		Start: domain.Position{Line: line, Character: start},
		End:   domain.Position{Line: line, Character: end},
	}
}
