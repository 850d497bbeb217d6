package mcp

import (
	"context"

	json "github.com/goccy/go-json"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type listProjectsInput struct{}

type summarizeProjectInput struct {
	RecordID string `json:"record_id" jsonschema:"project record id returned by list_projects"`
}

func registerTools(server *sdkmcp.Server, svc ActivityService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List the projects tracked for the current user with their activity counters",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listProjectsInput) (*sdkmcp.CallToolResult, any, error) {
		userID := getUserID(ctx)
		if userID == "" {
			return errorResult(ErrUnauthenticated), nil, nil
		}
		list, err := svc.ListProjects(ctx, userID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(list), nil, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "summarize_project",
		Description: "Summarize keystrokes, file switches, idle and focus time across every file of a project",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in summarizeProjectInput) (*sdkmcp.CallToolResult, any, error) {
		summary, err := svc.SummarizeProject(ctx, in.RecordID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(summary), nil, nil
	})
}

func jsonResult(payload any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return errorResult(err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
