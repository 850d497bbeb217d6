package project

import (
	"context"
	"time"

	"github.com/rpggio/codepulse/internal/structure"
)

// Repository provides persistence for project records.
type Repository interface {
	Get(ctx context.Context, id string) (*Record, error)
	GetByPath(ctx context.Context, projectPath string) (*Record, error)
	ListByIDs(ctx context.Context, ids []string) ([]Record, error)
	// CreateLinked inserts rec, creating the user's session if needed and
	// linking rec to it, all in one transaction. When another record already
	// owns rec.ProjectPath it returns that record and created=false.
	CreateLinked(ctx context.Context, rec *Record, userID string, at time.Time) (stored *Record, created bool, err error)
	UpdateEnvelope(ctx context.Context, id, envelope string, at time.Time) error
}

// Sealer converts structure documents to and from stored envelopes.
type Sealer interface {
	Seal(doc structure.Document) (string, error)
	Open(stored string) (structure.Document, error)
}
