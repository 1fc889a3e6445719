package integrity

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/ui/output"
	"go.trai.ch/wdlcache/internal/ui/style"
)

// WriteReport renders report as text.
func WriteReport(w io.Writer, report domain.HealthReport) error {
	out := output.New(w)
	var b strings.Builder

	header := fmt.Sprintf("%s Cache health: %s", style.HealthIcon(report.Overall), report.Overall)
	b.WriteString(out.String(header).Foreground(termenv.RGBColor(string(style.HealthColor(report.Overall)))).Bold().String())
	b.WriteString("\n\n")

	s := report.Validation.Stats
	row(&b, "Entries", fmt.Sprintf("%d total, %d valid, %d invalid, %d corrupted, %d missing files",
		s.TotalEntries, s.ValidEntries, s.InvalidEntries, s.CorruptedEntries, s.MissingFiles))

	st := report.Stats
	kind := domain.CompressionNone
	if st.Compression {
		kind = domain.CompressionGzip
	}
	row(&b, "Size", fmt.Sprintf("%s on disk, %s raw, ratio %.2f (%s)",
		humanize.Bytes(uint64(st.TotalSize)), humanize.Bytes(uint64(st.RawSize)), st.CompressionRatio, kind))
	row(&b, "Activity", fmt.Sprintf("%d saves, %d loads, %d errors", st.SaveCount, st.LoadCount, st.ErrorCount))
	row(&b, "Last save", timestamp(st.LastSave))
	row(&b, "Generated", timestamp(report.GeneratedAt))

	dim := termenv.RGBColor(string(style.Slate))
	list(&b, out, "Issues", report.Issues, style.Dot, dim)
	list(&b, out, "Recommendations", report.Recommendations, style.Dot, dim)
	list(&b, out, "Errors", report.Validation.Errors, style.Cross, termenv.RGBColor(string(style.Red)))
	list(&b, out, "Warnings", report.Validation.Warnings, style.Warning, termenv.RGBColor(string(style.Yellow)))

	_, err := io.WriteString(w, b.String())
	return err
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %-10s %s\n", label, value)
}

func list(b *strings.Builder, out *termenv.Output, title string, items []string, icon string, color termenv.Color) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "    %s %s\n", out.String(icon).Foreground(color), item)
	}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
