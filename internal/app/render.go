package app

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"go.trai.ch/wdlcache/internal/adapters/memcache"
	"go.trai.ch/wdlcache/internal/adapters/telemetry"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/engine/resolver"
	"go.trai.ch/wdlcache/internal/ui/output"
	"go.trai.ch/wdlcache/internal/ui/style"
)

type printer struct {
	out *termenv.Output
	b   strings.Builder
}

func newPrinter(w io.Writer) *printer {
	return &printer{out: output.New(w)}
}

func (p *printer) status(ok bool, format string, args ...any) {
	icon, color := style.Check, style.Green
	if !ok {
		icon, color = style.Cross, style.Red
	}
	fmt.Fprintf(&p.b, "%s %s\n", p.out.String(icon).Foreground(termenv.RGBColor(string(color))), fmt.Sprintf(format, args...))
}

func (p *printer) line(indent int, format string, args ...any) {
	p.b.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) items(indent int, icon string, color lipgloss.Color, items []string) {
	for _, item := range items {
		p.line(indent, "%s %s", p.out.String(icon).Foreground(termenv.RGBColor(string(color))), item)
	}
}

func (p *printer) flush(w io.Writer) error {
	_, err := io.WriteString(w, p.b.String())
	return err
}

func writeImports(w io.Writer, uri string, results []resolver.ImportResult) error {
	p := newPrinter(w)
	p.line(0, "%s: %d imports", uri, len(results))
	for _, res := range results {
		if !res.Success {
			p.status(false, "unresolved")
			p.items(1, style.Cross, style.Red, res.Errors)
			continue
		}
		source := "resolved"
		if res.FromCache {
			source = "cached"
		}
		imp := res.Import
		p.status(true, "%s (%s, %d tasks, %d files)", imp.ResolvedURI, source, len(imp.Tasks), len(imp.Dependencies))
		for _, t := range imp.Tasks {
			p.line(2, "%s", t.Name)
		}
	}
	return p.flush(w)
}

func writeSymbols(w io.Writer, table *domain.SymbolTable) error {
	p := newPrinter(w)
	p.line(0, "%s", table.URI)
	for _, name := range slices.Sorted(maps.Keys(table.Tasks)) {
		t := table.Tasks[name]
		p.line(1, "task %s (%d inputs, %d outputs) lines %d-%d",
			name, len(t.Inputs), len(t.Outputs), t.Range.Start.Line+1, t.Range.End.Line+1)
	}
	for _, name := range slices.Sorted(maps.Keys(table.Workflows)) {
		wf := table.Workflows[name]
		p.line(1, "workflow %s calls [%s]", name, strings.Join(wf.Calls, ", "))
	}
	return p.flush(w)
}

func writeValidation(w io.Writer, result domain.ValidationResult) error {
	p := newPrinter(w)
	s := result.Stats
	p.status(result.IsValid, "%d entries: %d valid, %d invalid, %d corrupted, %d missing files",
		s.TotalEntries, s.ValidEntries, s.InvalidEntries, s.CorruptedEntries, s.MissingFiles)
	p.items(1, style.Cross, style.Red, result.Errors)
	p.items(1, style.Warning, style.Yellow, result.Warnings)
	return p.flush(w)
}

func writeOptimize(w io.Writer, result domain.OptimizeResult) error {
	p := newPrinter(w)
	p.status(true, "removed %d entries, %s -> %s", result.RemovedEntries,
		humanize.Bytes(uint64(max(result.SizeBefore, 0))), humanize.Bytes(uint64(max(result.SizeAfter, 0))))
	return p.flush(w)
}

func writeMigration(w io.Writer, result domain.MigrationResult) error {
	p := newPrinter(w)
	p.status(result.Success, "migration %s -> %s", result.From, result.To)
	for _, step := range result.AppliedSteps {
		p.line(1, "%s -> %s: %s", step.From, step.To, step.Description)
	}
	if result.BackupPath != "" {
		p.line(1, "backup: %s", result.BackupPath)
	}
	p.items(1, style.Warning, style.Yellow, result.Warnings)
	p.items(1, style.Cross, style.Red, result.Errors)
	return p.flush(w)
}

func writeHistory(w io.Writer, history []domain.MigrationRecord) error {
	p := newPrinter(w)
	if len(history) == 0 {
		p.line(0, "no migrations recorded")
	}
	for _, rec := range history {
		p.status(rec.Success, "%s  %s -> %s  %s", rec.StartedAt.UTC().Format(time.RFC3339), rec.From, rec.To, rec.ID)
		if rec.Error != "" {
			p.line(1, "%s", rec.Error)
		}
	}
	return p.flush(w)
}

func writeStats(w io.Writer, st domain.StoreStats, imports, syms memcache.Stats) error {
	p := newPrinter(w)
	p.line(0, "persistent: %d entries, %s on disk, %s raw, ratio %.2f",
		st.TotalEntries, humanize.Bytes(uint64(max(st.TotalSize, 0))), humanize.Bytes(uint64(max(st.RawSize, 0))), st.CompressionRatio)
	p.line(1, "%d saves, %d loads, %d errors", st.SaveCount, st.LoadCount, st.ErrorCount)
	for _, layer := range []struct {
		name  string
		stats memcache.Stats
	}{
		{name: "imports", stats: imports},
		{name: "symbols", stats: syms},
	} {
		s := layer.stats
		p.line(0, "memory %s: %d/%d entries, %s/%s, hit rate %.0f%%, %d evictions",
			layer.name, s.Size, s.MaxSize,
			humanize.Bytes(uint64(max(s.TotalMemoryUsage, 0))), humanize.Bytes(uint64(max(s.MaxMemoryUsage, 0))),
			s.HitRate*100, s.Evictions)
	}
	return p.flush(w)
}

func writeTrace(w io.Writer, spans []telemetry.SpanTiming) error {
	p := newPrinter(w)
	for _, s := range spans {
		if s.Err != "" {
			p.line(0, "%10s  %s  %s", s.Duration.Round(time.Microsecond), s.Name, s.Err)
			continue
		}
		p.line(0, "%10s  %s", s.Duration.Round(time.Microsecond), s.Name)
	}
	return p.flush(w)
}
