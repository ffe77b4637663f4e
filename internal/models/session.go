package models

import "time"

// EditorSession describes an open project held by the session manager.
type EditorSession struct {
	ID           string    `json:"id"`
	ProjectName  string    `json:"projectName"`
	SourceFileID string    `json:"sourceFileId,omitempty"` // Set when opened from storage
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
}
