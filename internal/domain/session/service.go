package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/codepulse/internal/repository"
)

// Service handles activity session operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new session service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// HeartbeatRequest describes a heartbeat update from the editor.
type HeartbeatRequest struct {
	UserID          string
	IsOnline        bool
	IsEditorFocused bool
	FocusDuration   int64
	TotalDuration   int64
}

// UpdateHeartbeat overwrites the session's liveness fields and stamps the
// heartbeat time. The session must already exist.
func (s *Service) UpdateHeartbeat(ctx context.Context, req HeartbeatRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if req.FocusDuration < 0 || req.TotalDuration < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidInput)
	}
	if req.FocusDuration > req.TotalDuration {
		return fmt.Errorf("%w: focus_duration exceeds total_duration", ErrInvalidInput)
	}

	hb := Heartbeat{
		IsOnline:        req.IsOnline,
		IsEditorFocused: req.IsEditorFocused,
		FocusDuration:   req.FocusDuration,
		TotalDuration:   req.TotalDuration,
	}
	if err := s.repo.UpdateHeartbeat(ctx, req.UserID, hb, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("updating heartbeat: %w", err)
	}
	return nil
}

// Get fetches the session for a user.
func (s *Service) Get(ctx context.Context, userID string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	sess, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}
