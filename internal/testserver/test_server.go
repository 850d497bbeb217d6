package testserver

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/codepulse/internal/cache"
	"github.com/rpggio/codepulse/internal/codec"
	"github.com/rpggio/codepulse/internal/domain/activity"
	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/liveness"
	"github.com/rpggio/codepulse/internal/mcp"
	"github.com/rpggio/codepulse/internal/metrics"
	"github.com/rpggio/codepulse/internal/sqlite"
	"github.com/rpggio/codepulse/internal/transport"
	"github.com/stretchr/testify/require"
)

const (
	APIKey    = "test-api-key"
	JWTSecret = "test-jwt-secret"
)

// TestServer is the full HTTP stack over a temp-file SQLite database.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Sessions *sqlite.SessionRepository
	Projects *sqlite.ProjectRepository
	Sweeper  *liveness.Sweeper
}

func New(t *testing.T) *TestServer {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "codepulse.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))

	key, err := codec.DeriveKey("integration passphrase")
	require.NoError(t, err)
	sealer, err := codec.New(key)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New(true, registry)
	summaries := cache.New(cache.Config{Enabled: true, SizeMB: 1, TTL: time.Minute}, m, nil)

	projectRepo := sqlite.NewProjectRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	projectSvc := project.NewService(projectRepo, sealer, nil)
	sessionSvc := session.NewService(sessionRepo, nil)
	activitySvc := activity.NewService(sessionRepo, projectRepo, sealer, summaries, nil)

	identity := transport.NewJWTResolver(JWTSecret)
	mcpServer := mcp.NewServer(mcp.Config{
		Activity:      activitySvc,
		Resolver:      identity,
		TransportMode: "http",
	})

	server := httptest.NewServer(transport.NewServer(transport.Config{
		Projects:       projectSvc,
		Sessions:       sessionSvc,
		Activity:       activitySvc,
		Identity:       identity,
		APIKey:         APIKey,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		MCPHandler:     mcp.NewHTTPHandler(mcpServer),
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Sessions: sessionRepo,
		Projects: projectRepo,
		Sweeper:  liveness.NewSweeper(sessionRepo, liveness.DefaultInterval, liveness.DefaultThreshold, nil, m),
	}
}

// Token issues a bearer token for userID.
func (ts *TestServer) Token(t *testing.T, userID string) string {
	t.Helper()
	token, err := transport.IssueToken(JWTSecret, userID, time.Hour)
	require.NoError(t, err)
	return token
}

// Do sends a request with the API key and, when token is set, a bearer
// token. It returns the status code and body.
func (ts *TestServer) Do(t *testing.T, method, path, body, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", APIKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}
