package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/repository"
	"github.com/rpggio/codepulse/internal/structure"
)

// Service answers activity queries by composing the stores, the codec and
// the structure aggregator.
type Service struct {
	sessions SessionReader
	projects ProjectReader
	codec    Opener
	cache    Cache
	logger   *slog.Logger
}

// NewService creates a new activity query service. cache may be nil.
func NewService(sessions SessionReader, projects ProjectReader, codec Opener, cache Cache, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		projects: projects,
		codec:    codec,
		cache:    cache,
		logger:   logger,
	}
}

// ListProjects returns the projects linked to the user's session, in link
// order, together with the session counters.
func (s *Service) ListProjects(ctx context.Context, userID string) (*ProjectList, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", session.ErrInvalidInput)
	}

	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	records, err := s.projects.ListByIDs(ctx, sess.LinkedProjectIDs)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	byID := make(map[string]project.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	refs := make([]ProjectRef, 0, len(sess.LinkedProjectIDs))
	for _, id := range sess.LinkedProjectIDs {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		refs = append(refs, ProjectRef{
			RecordID:    rec.ID,
			ProjectPath: rec.ProjectPath,
			ProjectName: ShortName(rec.ProjectPath),
		})
	}

	linked := sess.LinkedProjectIDs
	if linked == nil {
		linked = []string{}
	}
	return &ProjectList{
		Projects: refs,
		Context: SessionContext{
			LinkedProjectIDs: linked,
			IsOnline:         sess.IsOnline,
			IsEditorFocused:  sess.IsEditorFocused,
			FocusDuration:    sess.FocusDuration,
			TotalDuration:    sess.TotalDuration,
			LastHeartbeat:    sess.LastHeartbeat,
		},
	}, nil
}

// SummarizeProject decrypts a project's structure and rolls up its counters.
func (s *Service) SummarizeProject(ctx context.Context, recordID string) (*ProjectSummary, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, fmt.Errorf("%w: record_id is required", project.ErrInvalidInput)
	}

	rec, err := s.projects.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	key := summaryKey(rec)
	if cached, ok := s.fromCache(key); ok {
		s.warnIntegrity(cached)
		return cached, nil
	}

	doc, err := s.codec.Open(rec.Envelope)
	if err != nil {
		return nil, fmt.Errorf("opening structure: %w", err)
	}

	files, totals := structure.Flatten(doc)

	summary := &ProjectSummary{
		RecordID:    rec.ID,
		ProjectPath: rec.ProjectPath,
		ProjectName: ShortName(rec.ProjectPath),
		Summary:     totals,
		Files:       files,
	}
	s.toCache(key, summary)
	s.warnIntegrity(summary)
	return summary, nil
}

func (s *Service) warnIntegrity(summary *ProjectSummary) {
	if !summary.Summary.IntegrityWarning || s.logger == nil {
		return
	}
	s.logger.Warn("idle time exceeds total time, focus clamped to zero",
		"record_id", summary.RecordID,
		"total_idle_duration", summary.Summary.TotalIdleDuration,
		"total_all_duration", summary.Summary.TotalAllDuration,
	)
}

// ShortName returns the last segment of a project path, accepting both
// Windows and POSIX separators.
func ShortName(projectPath string) string {
	trimmed := strings.TrimRight(projectPath, `\/`)
	if trimmed == "" {
		return projectPath
	}
	if i := strings.LastIndexAny(trimmed, `\/`); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func summaryKey(rec *project.Record) string {
	sum := sha256.Sum256([]byte(rec.Envelope))
	return "summary:" + rec.ID + ":" + hex.EncodeToString(sum[:8])
}

func (s *Service) fromCache(key string) (*ProjectSummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	var summary ProjectSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func (s *Service) toCache(key string, summary *ProjectSummary) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	s.cache.Set(key, data)
}
