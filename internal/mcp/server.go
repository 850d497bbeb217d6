package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/codepulse/internal/domain/activity"
)

// ActivityService defines the activity queries exposed as MCP tools.
type ActivityService interface {
	ListProjects(ctx context.Context, userID string) (*activity.ProjectList, error)
	SummarizeProject(ctx context.Context, recordID string) (*activity.ProjectSummary, error)
}

// Config contains server configuration.
type Config struct {
	Activity      ActivityService
	Resolver      UserResolver
	TransportMode string // "stdio" or "http"
	DefaultUserID string // user served over stdio
	Logger        *slog.Logger
	Version       string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "codepulse",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a local, single-user transport.
	if cfg.TransportMode == "stdio" {
		server.AddReceivingMiddleware(fixedUserMiddleware(cfg.DefaultUserID))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Activity)

	return server
}

// NewHTTPHandler serves server over streamable HTTP.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)
}
