package activity

import (
	"context"

	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/structure"
)

// SessionReader loads activity sessions.
type SessionReader interface {
	Get(ctx context.Context, userID string) (*session.Session, error)
}

// ProjectReader loads project records.
type ProjectReader interface {
	Get(ctx context.Context, id string) (*project.Record, error)
	ListByIDs(ctx context.Context, ids []string) ([]project.Record, error)
}

// Opener decrypts stored structure envelopes.
type Opener interface {
	Open(stored string) (structure.Document, error)
}

// Cache stores encoded summaries.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}
