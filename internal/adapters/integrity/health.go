package integrity

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.trai.ch/wdlcache/internal/core/domain"
)

// GenerateHealthReport validates the cache and classifies its overall health.
func (v *Validator) GenerateHealthReport(ctx context.Context) domain.HealthReport {
	validation := v.ValidateCache(ctx)
	stats := v.store.Stats()

	report := Classify(validation, stats)
	report.GeneratedAt = v.now().UTC()
	return report
}

// Classify derives the health status, issues and recommendations from a
// validation result and store statistics.
func Classify(validation domain.ValidationResult, stats domain.StoreStats) domain.HealthReport {
	report := domain.HealthReport{
		Overall:         domain.HealthHealthy,
		Validation:      validation,
		Stats:           stats,
		Issues:          []string{},
		Recommendations: []string{},
	}

	degrade := func(status domain.HealthStatus) {
		if report.Overall != domain.HealthCritical {
			report.Overall = status
		}
	}

	if n := validation.Stats.CorruptedEntries; n > 0 {
		degrade(domain.HealthCritical)
		report.Issues = append(report.Issues, fmt.Sprintf("%d corrupted entries", n))
		report.Recommendations = append(report.Recommendations,
			"run `wdlcache repair` to drop corrupted entries, or restore a backup")
	}

	if ratio := validation.InvalidRatio(); ratio > domain.InvalidEntryRatioThreshold {
		degrade(domain.HealthWarning)
		report.Issues = append(report.Issues, fmt.Sprintf("%.0f%% of entries are invalid", ratio*100))
		report.Recommendations = append(report.Recommendations,
			"run `wdlcache repair` to remove invalid entries")
	}

	if stats.TotalSize > domain.LargeCacheThreshold {
		degrade(domain.HealthWarning)
		report.Issues = append(report.Issues, fmt.Sprintf("cache size %s exceeds %s",
			humanize.Bytes(uint64(stats.TotalSize)), humanize.Bytes(uint64(domain.LargeCacheThreshold))))
		report.Recommendations = append(report.Recommendations,
			"run `wdlcache optimize` to drop entries older than 7 days")
	}

	if stats.Compression && stats.TotalSize > 0 && stats.CompressionRatio > domain.PoorCompressionRatio {
		degrade(domain.HealthWarning)
		report.Issues = append(report.Issues, fmt.Sprintf("poor compression ratio %.2f", stats.CompressionRatio))
		report.Recommendations = append(report.Recommendations,
			"run `wdlcache optimize` to rewrite the cache files")
	}

	if n := validation.Stats.MissingFiles; n > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d entries refer to deleted source files", n))
		report.Recommendations = append(report.Recommendations,
			"run `wdlcache clear` if the workspace layout changed")
	}

	return report
}
