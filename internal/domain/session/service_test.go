package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/repository"
	"github.com/rpggio/codepulse/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionService_UpdateHeartbeat(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}

	want := session.Heartbeat{IsOnline: true, IsEditorFocused: false, FocusDuration: 100, TotalDuration: 250}
	repo.On("UpdateHeartbeat", ctx, "u1", want, mock.Anything).Return(nil)

	svc := session.NewService(repo, nil)
	err := svc.UpdateHeartbeat(ctx, session.HeartbeatRequest{
		UserID:        "u1",
		IsOnline:      true,
		FocusDuration: 100,
		TotalDuration: 250,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSessionService_UpdateHeartbeat_MissingSession(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("UpdateHeartbeat", ctx, "ghost", mock.Anything, mock.Anything).Return(repository.ErrNotFound)

	svc := session.NewService(repo, nil)
	err := svc.UpdateHeartbeat(ctx, session.HeartbeatRequest{UserID: "ghost"})
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionService_UpdateHeartbeat_Validation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	svc := session.NewService(repo, nil)

	cases := map[string]session.HeartbeatRequest{
		"missing user":      {UserID: " "},
		"negative focus":    {UserID: "u1", FocusDuration: -1, TotalDuration: 5},
		"negative total":    {UserID: "u1", TotalDuration: -5},
		"focus above total": {UserID: "u1", FocusDuration: 10, TotalDuration: 5},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			err := svc.UpdateHeartbeat(ctx, req)
			require.ErrorIs(t, err, session.ErrInvalidInput)
		})
	}
	repo.AssertNotCalled(t, "UpdateHeartbeat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_UpdateHeartbeat_StoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("UpdateHeartbeat", ctx, "u1", mock.Anything, mock.Anything).Return(repository.ErrUnavailable)

	svc := session.NewService(repo, nil)
	err := svc.UpdateHeartbeat(ctx, session.HeartbeatRequest{UserID: "u1"})
	require.ErrorIs(t, err, repository.ErrUnavailable)
	require.False(t, errors.Is(err, session.ErrSessionNotFound))
}

func TestSessionService_Get(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "u1").Return(&session.Session{UserID: "u1", LinkedProjectIDs: []string{"r1"}}, nil)
	repo.On("Get", ctx, "u2").Return(nil, repository.ErrNotFound)

	svc := session.NewService(repo, nil)

	sess, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"r1"}, sess.LinkedProjectIDs)

	_, err = svc.Get(ctx, "u2")
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = svc.Get(ctx, "")
	require.ErrorIs(t, err, session.ErrInvalidInput)
}
