package project

import "time"

// Record is a tracked project keyed by its unique path. Envelope holds the
// encrypted structure and is never serialized.
type Record struct {
	ID          string    `json:"record_id"`
	ProjectPath string    `json:"project_path"`
	Envelope    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
