package activity

import (
	"time"

	"github.com/rpggio/codepulse/internal/structure"
)

// ProjectRef is a lightweight project listing entry.
type ProjectRef struct {
	RecordID    string `json:"record_id"`
	ProjectPath string `json:"project_path"`
	ProjectName string `json:"project_name"`
}

// SessionContext carries the session counters returned alongside a listing.
type SessionContext struct {
	LinkedProjectIDs []string  `json:"linked_project_ids"`
	IsOnline         bool      `json:"is_online"`
	IsEditorFocused  bool      `json:"is_editor_focused"`
	FocusDuration    int64     `json:"focus_duration"`
	TotalDuration    int64     `json:"total_duration"`
	LastHeartbeat    time.Time `json:"last_heartbeat"`
}

// ProjectList is the answer to "list my projects".
type ProjectList struct {
	Projects []ProjectRef   `json:"projects"`
	Context  SessionContext `json:"activity_context"`
}

// ProjectSummary is the rolled-up activity of one project.
type ProjectSummary struct {
	RecordID    string               `json:"record_id"`
	ProjectPath string               `json:"project_path"`
	ProjectName string               `json:"project_name"`
	Summary     structure.Totals     `json:"summary"`
	Files       []structure.FlatFile `json:"files"`
}
