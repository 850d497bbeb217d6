package mocks

import (
	"context"
	"time"

	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/structure"
	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Get(ctx context.Context, userID string) (*session.Session, error) {
	args := m.Called(ctx, userID)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) UpdateHeartbeat(ctx context.Context, userID string, hb session.Heartbeat, at time.Time) error {
	args := m.Called(ctx, userID, hb, at)
	return args.Error(0)
}

func (m *SessionRepository) DemoteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Record, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*project.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetByPath(ctx context.Context, projectPath string) (*project.Record, error) {
	args := m.Called(ctx, projectPath)
	if rec, ok := args.Get(0).(*project.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListByIDs(ctx context.Context, ids []string) ([]project.Record, error) {
	args := m.Called(ctx, ids)
	if list, ok := args.Get(0).([]project.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) CreateLinked(ctx context.Context, rec *project.Record, userID string, at time.Time) (*project.Record, bool, error) {
	args := m.Called(ctx, rec, userID, at)
	if stored, ok := args.Get(0).(*project.Record); ok {
		return stored, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *ProjectRepository) UpdateEnvelope(ctx context.Context, id, envelope string, at time.Time) error {
	args := m.Called(ctx, id, envelope, at)
	return args.Error(0)
}

// Codec is a mock for the structure sealer.
type Codec struct {
	mock.Mock
}

func (m *Codec) Seal(doc structure.Document) (string, error) {
	args := m.Called(doc)
	return args.String(0), args.Error(1)
}

func (m *Codec) Open(stored string) (structure.Document, error) {
	args := m.Called(stored)
	if doc, ok := args.Get(0).(structure.Document); ok {
		return doc, args.Error(1)
	}
	return structure.Document{}, args.Error(1)
}

// Cache is a mock for the summary cache.
type Cache struct {
	mock.Mock
}

func (m *Cache) Get(key string) ([]byte, bool) {
	args := m.Called(key)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *Cache) Set(key string, value []byte) {
	m.Called(key, value)
}
