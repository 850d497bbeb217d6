package session

import (
	"context"
	"time"
)

// Repository provides persistence for activity sessions.
type Repository interface {
	Get(ctx context.Context, userID string) (*Session, error)
	UpdateHeartbeat(ctx context.Context, userID string, hb Heartbeat, at time.Time) error
}
