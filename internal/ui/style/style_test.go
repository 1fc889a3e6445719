package style_test

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/ui/style"
)

func TestHealthPresentation(t *testing.T) {
	tests := []struct {
		status domain.HealthStatus
		icon   string
		color  lipgloss.Color
	}{
		{status: domain.HealthHealthy, icon: style.Check, color: style.Green},
		{status: domain.HealthWarning, icon: style.Warning, color: style.Yellow},
		{status: domain.HealthCritical, icon: style.Cross, color: style.Red},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.icon, style.HealthIcon(tt.status))
			assert.Equal(t, tt.color, style.HealthColor(tt.status))
		})
	}
}
