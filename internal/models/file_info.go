package models

import "time"

// FileInfo represents metadata about a saved project file.
type FileInfo struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Format  string    `json:"format"` // "json", "msgpack", "yaml"
	SavedAt time.Time `json:"savedAt"`
}
