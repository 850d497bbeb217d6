package session

import "time"

// Session is the per-user activity state reported by the editor.
type Session struct {
	UserID           string    `json:"user_id"`
	LinkedProjectIDs []string  `json:"linked_project_ids"`
	IsOnline         bool      `json:"is_online"`
	IsEditorFocused  bool      `json:"is_editor_focused"`
	FocusDuration    int64     `json:"focus_duration"`
	TotalDuration    int64     `json:"total_duration"`
	LastHeartbeat    time.Time `json:"last_heartbeat"`
	CreatedAt        time.Time `json:"created_at"`
}

// Heartbeat carries the mutable session fields overwritten on each update.
type Heartbeat struct {
	IsOnline        bool
	IsEditorFocused bool
	FocusDuration   int64
	TotalDuration   int64
}
