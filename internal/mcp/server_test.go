package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/codepulse/internal/codec"
	"github.com/rpggio/codepulse/internal/domain/activity"
	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/repository"
	"github.com/rpggio/codepulse/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityStub struct {
	listFn      func(context.Context, string) (*activity.ProjectList, error)
	summarizeFn func(context.Context, string) (*activity.ProjectSummary, error)
}

func (a activityStub) ListProjects(ctx context.Context, userID string) (*activity.ProjectList, error) {
	return a.listFn(ctx, userID)
}

func (a activityStub) SummarizeProject(ctx context.Context, recordID string) (*activity.ProjectSummary, error) {
	return a.summarizeFn(ctx, recordID)
}

type tokenResolver map[string]string

func (r tokenResolver) ResolveUser(_ context.Context, token string) (string, error) {
	if id, ok := r[token]; ok {
		return id, nil
	}
	return "", errors.New("unknown token")
}

func defaultStub() activityStub {
	return activityStub{
		listFn: func(_ context.Context, userID string) (*activity.ProjectList, error) {
			return &activity.ProjectList{
				Projects: []activity.ProjectRef{{RecordID: "r1", ProjectPath: "/home/" + userID + "/app", ProjectName: "app"}},
				Context:  activity.SessionContext{LinkedProjectIDs: []string{"r1"}},
			}, nil
		},
		summarizeFn: func(_ context.Context, recordID string) (*activity.ProjectSummary, error) {
			if recordID != "r1" {
				return nil, project.ErrProjectNotFound
			}
			return &activity.ProjectSummary{
				RecordID:    "r1",
				ProjectName: "app",
				Summary:     structure.Totals{TotalKeystrokesCount: 100, TotalAllDuration: 20, TotalIdleDuration: 5, TotalFocusDuration: 15},
				Files:       []structure.FlatFile{{FileName: "a.ts", FolderPath: "src"}},
			}, nil
		},
	}
}

func connect(t *testing.T, server *sdkmcp.Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func toolText(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, NewServer(Config{Activity: defaultStub(), TransportMode: "stdio", DefaultUserID: "u1"}))

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	assert.True(t, names["list_projects"])
	assert.True(t, names["summarize_project"])
}

func TestServer_ListProjectsStdio(t *testing.T) {
	var seenUser string
	stub := defaultStub()
	inner := stub.listFn
	stub.listFn = func(ctx context.Context, userID string) (*activity.ProjectList, error) {
		seenUser = userID
		return inner(ctx, userID)
	}
	session := connect(t, NewServer(Config{Activity: stub, TransportMode: "stdio", DefaultUserID: "local-user"}))

	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "list_projects"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "local-user", seenUser)

	var list activity.ProjectList
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &list))
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "app", list.Projects[0].ProjectName)
}

func TestServer_SummarizeProject(t *testing.T) {
	session := connect(t, NewServer(Config{Activity: defaultStub(), TransportMode: "stdio", DefaultUserID: "u1"}))

	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "summarize_project",
		Arguments: map[string]any{"record_id": "r1"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var summary activity.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &summary))
	assert.Equal(t, int64(15), summary.Summary.TotalFocusDuration)
	assert.Equal(t, "src", summary.Files[0].FolderPath)

	result, err = session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "summarize_project",
		Arguments: map[string]any{"record_id": "nope"},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)

	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestServer_ReadDocs(t *testing.T) {
	session := connect(t, NewServer(Config{Activity: defaultStub(), TransportMode: "stdio", DefaultUserID: "u1"}))

	read, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "codepulse://docs/summary"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, "total_focus_duration")
}

func TestServer_HTTPModeRequiresBearer(t *testing.T) {
	session := connect(t, NewServer(Config{Activity: defaultStub(), TransportMode: "http", Resolver: tokenResolver{"good": "u1"}}))

	_, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "list_projects"})
	require.Error(t, err, "in-memory calls carry no Authorization header")
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

func TestServer_HTTPModeResolvesUser(t *testing.T) {
	var seenUser string
	stub := defaultStub()
	inner := stub.listFn
	stub.listFn = func(ctx context.Context, userID string) (*activity.ProjectList, error) {
		seenUser = userID
		return inner(ctx, userID)
	}
	server := NewServer(Config{Activity: stub, TransportMode: "http", Resolver: tokenResolver{"good": "user-7"}})
	httpServer := httptest.NewServer(NewHTTPHandler(server))
	t.Cleanup(httpServer.Close)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   httpServer.URL,
		HTTPClient: &http.Client{Transport: bearerTransport{token: "good", base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "list_projects"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "user-7", seenUser)
}

func TestMapError(t *testing.T) {
	cases := map[error]string{
		ErrUnauthenticated:                               "UNAUTHENTICATED",
		project.ErrInvalidInput:                          "VALIDATION_ERROR",
		session.ErrInvalidInput:                          "VALIDATION_ERROR",
		project.ErrProjectNotFound:                       "NOT_FOUND",
		session.ErrSessionNotFound:                       "NOT_FOUND",
		fmt.Errorf("open: %w", codec.ErrDecode):          "DECODE_ERROR",
		fmt.Errorf("get: %w", repository.ErrUnavailable): "STORE_UNAVAILABLE",
		errors.New("SELECT failed near secret_table"):    "INTERNAL",
	}
	for err, code := range cases {
		apiErr := MapError(err)
		require.NotNil(t, apiErr)
		assert.Equal(t, code, apiErr.Code, err.Error())
		assert.NotContains(t, apiErr.Message, "secret_table")
	}
	assert.Nil(t, MapError(nil))
}
