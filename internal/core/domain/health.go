package domain

import "time"

// ValidationStats counts entries by validation outcome.
type ValidationStats struct {
	TotalEntries     int `json:"totalEntries"`
	ValidEntries     int `json:"validEntries"`
	InvalidEntries   int `json:"invalidEntries"`
	CorruptedEntries int `json:"corruptedEntries"`
	MissingFiles     int `json:"missingFiles"`
}

// ValidationResult aggregates validation across both cache domains.
type ValidationResult struct {
	IsValid  bool            `json:"isValid"`
	Errors   []string        `json:"errors"`
	Warnings []string        `json:"warnings"`
	Stats    ValidationStats `json:"stats"`
}

// InvalidRatio returns invalid entries as a fraction of all entries.
func (r ValidationResult) InvalidRatio() float64 {
	if r.Stats.TotalEntries == 0 {
		return 0
	}
	return float64(r.Stats.InvalidEntries) / float64(r.Stats.TotalEntries)
}

// RepairResult reports what RepairCache changed.
type RepairResult struct {
	Repaired int      `json:"repaired"`
	Removed  int      `json:"removed"`
	Errors   []string `json:"errors"`
}

// OptimizeResult reports the effect of OptimizeCache.
type OptimizeResult struct {
	SizeBefore     int64 `json:"sizeBefore"`
	SizeAfter      int64 `json:"sizeAfter"`
	RemovedEntries int   `json:"removedEntries"`
}

// HealthStatus classifies overall cache health.
type HealthStatus string

const (
	// HealthHealthy means no issues were found.
	HealthHealthy HealthStatus = "healthy"
	// HealthWarning means the cache works but needs attention.
	HealthWarning HealthStatus = "warning"
	// HealthCritical means corrupted entries were found.
	HealthCritical HealthStatus = "critical"
)

// HealthReport is the operational summary produced by the validator.
type HealthReport struct {
	Overall         HealthStatus     `json:"overall"`
	Validation      ValidationResult `json:"validation"`
	Stats           StoreStats       `json:"stats"`
	Issues          []string         `json:"issues"`
	Recommendations []string         `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}
