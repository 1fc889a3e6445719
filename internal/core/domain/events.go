package domain

import "time"

// ChangeType is the kind of change reported for a file.
type ChangeType string

const (
	// ChangeCreated reports a new file.
	ChangeCreated ChangeType = "created"
	// ChangeModified reports a content change.
	ChangeModified ChangeType = "modified"
	// ChangeDeleted reports a removed or renamed-away file.
	ChangeDeleted ChangeType = "deleted"
)

// FileChangeEvent is delivered by the file-change notifier.
type FileChangeEvent struct {
	URI       string     `json:"uri"`
	Type      ChangeType `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
}
