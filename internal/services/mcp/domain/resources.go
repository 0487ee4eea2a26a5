package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StateResource describes the live operator state resource.
func StateResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         StateResourceURI,
		Name:        "operator_state",
		Description: "Current operator resources, telemetry and fleet.",
		MIMEType:    "application/json",
	}
}

// LogsResource describes the recent log resource.
func LogsResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         LogsResourceURI,
		Name:        "terminal_logs",
		Description: "The newest terminal log entries.",
		MIMEType:    "application/json",
	}
}

// StateResourceHandler reads flatline://state.
func StateResourceHandler(client GameClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, fmt.Errorf("game client is not configured")
		}
		state, err := fetchState(ctx, client)
		if err != nil {
			return nil, err
		}
		return jsonResource(StateResourceURI, state)
	}
}

// LogsResourceHandler reads flatline://logs.
func LogsResourceHandler(client GameClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, fmt.Errorf("game client is not configured")
		}
		entries, err := listLogs(ctx, client, "", defaultLogLimit)
		if err != nil {
			return nil, err
		}
		return jsonResource(LogsResourceURI, GameLogsResult{Entries: entries})
	}
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}
