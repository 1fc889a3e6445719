package domain

import "time"

// MigrationStepInfo describes one entry of the migration step table.
type MigrationStepInfo struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Description string `json:"description"`
}

// MigrationRecord is one entry of the persisted migration history.
type MigrationRecord struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Steps       []string  `json:"steps"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// MigrationResult reports the outcome of a migration run.
type MigrationResult struct {
	Success      bool                `json:"success"`
	From         string              `json:"from"`
	To           string              `json:"to"`
	AppliedSteps []MigrationStepInfo `json:"appliedSteps"`
	Warnings     []string            `json:"warnings"`
	Errors       []string            `json:"errors"`
	BackupPath   string              `json:"backupPath,omitempty"`
}
