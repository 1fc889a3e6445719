package wdl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wdlcache/internal/adapters/wdl"
	"go.trai.ch/wdlcache/internal/core/domain"
)

const alignWDL = `version 1.0

import "lib/utils.wdl" as utils
import "common.wdl"

# Aligns reads against a reference.
task align {
  input {
    File reads
    Array[File]+ references
    Int? threads
    String sample = "unknown" # comment with { brace
  }

  command <<<
    bwa mem -t ~{threads} ~{sep=" " references} ~{reads} > out.sam
    if [ -z "$X" ]; then { echo; }; fi
  >>>

  output {
    File sam = "out.sam"
  }

  runtime {
    docker: "bwa:latest"
  }
}

workflow main {
  input {
    Map[String, Int] weights
  }
  scatter (r in range(3)) {
    call align
  }
  call utils.merge as merged
  output {
    Array[File] sams = align.sam
  }
}
`

func TestScanner_Parse(t *testing.T) {
	doc, err := wdl.New().Parse("file:///w/align.wdl", []byte(alignWDL))
	require.NoError(t, err)

	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, []domain.ImportDecl{
		{
			Path:  "lib/utils.wdl",
			Alias: "utils",
			Range: domain.Range{Start: domain.Position{Line: 2}, End: domain.Position{Line: 2, Character: 31}},
		},
		{
			Path:  "common.wdl",
			Range: domain.Range{Start: domain.Position{Line: 3}, End: domain.Position{Line: 3, Character: 19}},
		},
	}, doc.Imports)

	require.Len(t, doc.Tasks, 1)
	task := doc.Tasks[0]
	assert.Equal(t, "align", task.Name)
	assert.Equal(t, []domain.Param{
		{Name: "reads", Type: "File"},
		{Name: "references", Type: "Array[File]+"},
		{Name: "threads", Type: "Int?", Optional: true},
		{Name: "sample", Type: "String", Optional: true, Default: `"unknown"`},
	}, task.Inputs)
	assert.Equal(t, []domain.Param{{Name: "sam", Type: "File", Default: `"out.sam"`}}, task.Outputs)
	assert.Equal(t, domain.Range{
		Start: domain.Position{Line: 6},
		End:   domain.Position{Line: 26, Character: 1},
	}, task.Range)

	require.Len(t, doc.Workflows, 1)
	wf := doc.Workflows[0]
	assert.Equal(t, "main", wf.Name)
	assert.Equal(t, []domain.Param{{Name: "weights", Type: "Map[String, Int]"}}, wf.Inputs)
	assert.Equal(t, []domain.Param{{Name: "sams", Type: "Array[File]", Default: "align.sam"}}, wf.Outputs)
	assert.Equal(t, []string{"align", "utils.merge"}, wf.Calls)
	assert.Equal(t, 28, wf.Range.Start.Line)
	assert.Equal(t, domain.Position{Line: 39, Character: 1}, wf.Range.End)
}

func TestScanner_Empty(t *testing.T) {
	doc, err := wdl.New().Parse("file:///w/empty.wdl", nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Imports)
	assert.Empty(t, doc.Tasks)
}

func TestScanner_UnterminatedBlock(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing brace", content: "task t {\n  input {\n    File f\n  }\n"},
		{name: "open heredoc", content: "task t {\n  command <<<\n    echo\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := wdl.New().Parse("file:///w/bad.wdl", []byte(tt.content))
			require.Error(t, err)
			assert.ErrorContains(t, err, domain.ErrParseFailed.Error())
			require.NotNil(t, doc)
			assert.Len(t, doc.Tasks, 1)
		})
	}
}

func TestScanner_SingleLineHeredoc(t *testing.T) {
	content := "task t {\n  command <<< echo hi >>>\n  output {\n    String s = stdout()\n  }\n}\n"

	doc, err := wdl.New().Parse("file:///w/t.wdl", []byte(content))
	require.NoError(t, err)
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, []domain.Param{{Name: "s", Type: "String", Default: "stdout()"}}, doc.Tasks[0].Outputs)
}
