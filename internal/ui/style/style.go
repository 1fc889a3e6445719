// Package style provides the shared colors and icons of the CLI output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/wdlcache/internal/core/domain"
)

// Palette.
var (
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
)

// HealthIcon returns the icon shown next to a health status.
func HealthIcon(status domain.HealthStatus) string {
	switch status {
	case domain.HealthHealthy:
		return Check
	case domain.HealthWarning:
		return Warning
	default:
		return Cross
	}
}

// HealthColor returns the color used for a health status.
func HealthColor(status domain.HealthStatus) lipgloss.Color {
	switch status {
	case domain.HealthHealthy:
		return Green
	case domain.HealthWarning:
		return Yellow
	default:
		return Red
	}
}
