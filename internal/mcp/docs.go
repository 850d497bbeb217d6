package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `codepulse records coding activity reported by an editor extension.

- list_projects: the projects linked to your activity session, in the order they were first opened, plus your online/focus counters.
- summarize_project(record_id): per-file keystrokes, file switches, idle and total time for one project, with project-wide totals.

Focus time is total time minus idle time. When stored data reports more idle than total time, focus is clamped to zero and integrity_warning is set.

Docs: codepulse://docs/summary`

const (
	summaryDocURI  = "codepulse://docs/summary"
	markdownMIME   = "text/markdown"
	summaryDocText = `# Project summary fields

## files[]

One entry per file, in document order (folders depth-first).

- file_name: the file's name.
- folder_path: slash-joined folder names from the project root. Empty for files at the root.
- idle_duration, total_duration: time spent idle and in total while the file was open.
- keystrokes_count: keystrokes typed in the file.
- file_switch_count: times the editor switched to the file.

## summary

- total_keystrokes_count, total_file_switch_count: sums over files[].
- total_idle_duration, total_all_duration: sums over files[].
- total_focus_duration: total_all_duration - total_idle_duration, never negative.
- integrity_warning: present when idle exceeded total and focus was clamped.
`
)

// registerDocResources exposes the summary field reference as a read-only
// markdown resource.
func registerDocResources(server *sdkmcp.Server) {
	server.AddResource(&sdkmcp.Resource{
		URI:         summaryDocURI,
		Name:        "summary-fields",
		Title:       "Project summary fields",
		Description: "Meaning of every field returned by summarize_project.",
		MIMEType:    markdownMIME,
		Size:        int64(len(summaryDocText)),
	}, readSummaryDoc)
}

func readSummaryDoc(_ context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	doc := &sdkmcp.ResourceContents{URI: summaryDocURI, MIMEType: markdownMIME, Text: summaryDocText}
	return &sdkmcp.ReadResourceResult{Contents: []*sdkmcp.ResourceContents{doc}}, nil
}
