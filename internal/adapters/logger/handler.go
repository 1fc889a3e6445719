package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/ui/output"
	"go.trai.ch/wdlcache/internal/ui/style"
)

// PrettyHandler is a slog.Handler that produces human-readable, colored output.
// File URIs inside the workspace root are printed as relative paths.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
	// rootURI is the workspace root as a file URI with a trailing slash.
	rootURI string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	h := &PrettyHandler{
		out:   output.New(w),
		level: levelVar,
	}
	if cwd, err := os.Getwd(); err == nil {
		h = h.WithRoot(cwd)
	}
	return h
}

// WithRoot returns a copy of the handler that prints file URIs under root
// relative to it.
func (h *PrettyHandler) WithRoot(root string) *PrettyHandler {
	clone := *h
	clone.rootURI = ""
	if root = filepath.Clean(root); filepath.Dir(root) != root {
		clone.rootURI = domain.PathToURI(root) + "/"
	}
	return &clone
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var msg string
	var color termenv.Color

	switch r.Level {
	case slog.LevelWarn:
		msg = style.Warning + " " + h.relative(r.Message)
		color = termenv.RGBColor(string(style.Yellow))
	case slog.LevelError:
		msg = style.Cross + " " + h.relative(r.Message)
		color = termenv.RGBColor(string(style.Red))
	default:
		msg = h.relative(r.Message)
		color = termenv.RGBColor(string(style.Slate))
	}

	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		attrParts = append(attrParts, h.relative(formatAttr(h.group, attr)))
	}
	r.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, h.relative(formatAttr(h.group, attr)))
		return true
	})

	if len(attrParts) > 0 {
		msg += " " + strings.Join(attrParts, " ")
	}

	styled := h.out.String(msg).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")

	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		out:     h.out,
		level:   h.level,
		attrs:   newAttrs,
		group:   h.group,
		rootURI: h.rootURI,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		out:     h.out,
		level:   h.level,
		attrs:   h.attrs,
		group:   name,
		rootURI: h.rootURI,
	}
}

func (h *PrettyHandler) relative(s string) string {
	if h.rootURI == "" {
		return s
	}
	return strings.ReplaceAll(s, h.rootURI, "")
}

// formatAttr formats a single attribute, prefixing the key with the group.
func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}
