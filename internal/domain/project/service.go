package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/codepulse/internal/repository"
	"github.com/rpggio/codepulse/internal/structure"
)

// Service handles project record operations.
type Service struct {
	repo   Repository
	codec  Sealer
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new project service.
func NewService(repo Repository, codec Sealer, logger *slog.Logger) *Service {
	return &Service{repo: repo, codec: codec, logger: logger, now: time.Now}
}

// CreateRequest defines lookup-or-create inputs.
type CreateRequest struct {
	ProjectPath      string
	UserID           string
	InitialStructure *structure.Document
}

// CreateResult is the record id and current structure of a project.
type CreateResult struct {
	RecordID  string
	Structure structure.Document
	Created   bool
}

// GetOrCreate returns the project stored under req.ProjectPath, creating it
// and linking it to the user's session when it does not exist yet.
// Repeated and concurrent calls for the same path return the same record.
func (s *Service) GetOrCreate(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if strings.TrimSpace(req.ProjectPath) == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: project_path and user_id are required", ErrInvalidInput)
	}

	existing, err := s.repo.GetByPath(ctx, req.ProjectPath)
	if err == nil {
		return s.openExisting(existing)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up project: %w", err)
	}

	doc := structure.Default(req.ProjectPath)
	if req.InitialStructure != nil {
		doc = *req.InitialStructure
	}
	if err := structure.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	envelope, err := s.codec.Seal(doc)
	if err != nil {
		return nil, fmt.Errorf("sealing structure: %w", err)
	}

	now := s.now()
	rec := &Record{
		ID:          uuid.NewString(),
		ProjectPath: req.ProjectPath,
		Envelope:    envelope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, created, err := s.repo.CreateLinked(ctx, rec, req.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if !created {
		if s.logger != nil {
			s.logger.Debug("project created concurrently", "project_path", req.ProjectPath, "record_id", stored.ID)
		}
		return s.openExisting(stored)
	}

	if s.logger != nil {
		s.logger.Info("project created", "record_id", stored.ID, "user_id", req.UserID)
	}
	return &CreateResult{RecordID: stored.ID, Structure: doc, Created: true}, nil
}

// UpdateStructure replaces the stored structure of a project wholesale.
func (s *Service) UpdateStructure(ctx context.Context, recordID string, doc structure.Document) error {
	if strings.TrimSpace(recordID) == "" {
		return fmt.Errorf("%w: record_id is required", ErrInvalidInput)
	}
	if err := structure.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	envelope, err := s.codec.Seal(doc)
	if err != nil {
		return fmt.Errorf("sealing structure: %w", err)
	}

	if err := s.repo.UpdateEnvelope(ctx, recordID, envelope, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("updating structure: %w", err)
	}
	return nil
}

// Get fetches a project record by ID.
func (s *Service) Get(ctx context.Context, recordID string) (*Record, error) {
	rec, err := s.repo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return rec, nil
}

// GetStructure returns a project record with its decrypted structure.
func (s *Service) GetStructure(ctx context.Context, recordID string) (*Record, structure.Document, error) {
	rec, err := s.Get(ctx, recordID)
	if err != nil {
		return nil, structure.Document{}, err
	}
	doc, err := s.codec.Open(rec.Envelope)
	if err != nil {
		return nil, structure.Document{}, fmt.Errorf("opening structure: %w", err)
	}
	return rec, doc, nil
}

func (s *Service) openExisting(rec *Record) (*CreateResult, error) {
	doc, err := s.codec.Open(rec.Envelope)
	if err != nil {
		return nil, fmt.Errorf("opening structure: %w", err)
	}
	return &CreateResult{RecordID: rec.ID, Structure: doc}, nil
}
