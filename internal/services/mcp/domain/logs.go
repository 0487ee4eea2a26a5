package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	gamegrpc "github.com/louisbranch/flatline/internal/services/game/api/grpc/game"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultLogLimit is how many entries game_logs returns without a limit.
const defaultLogLimit = 50

// GameLogsInput is the input of game_logs.
type GameLogsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter, e.g. level = \"warn\" AND text:\"Attack\""`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of newest entries (default 50)"`
}

// LogLine is one feed entry.
type LogLine struct {
	ID    string `json:"id" jsonschema:"entry identifier"`
	Level string `json:"level" jsonschema:"severity (info, success, warn, error)"`
	Text  string `json:"text" jsonschema:"display text; may contain markup"`
	At    string `json:"at" jsonschema:"RFC3339 creation time"`
}

// GameLogsResult is the output of game_logs.
type GameLogsResult struct {
	Entries []LogLine `json:"entries" jsonschema:"entries, oldest first"`
}

// GameLogsTool defines the game_logs tool.
func GameLogsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "game_logs",
		Description: "Lists recent terminal log entries, optionally filtered.",
	}
}

// GameLogsHandler lists log entries.
func GameLogsHandler(client GameClient) mcp.ToolHandlerFor[GameLogsInput, GameLogsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GameLogsInput) (*mcp.CallToolResult, GameLogsResult, error) {
		if client == nil {
			return nil, GameLogsResult{}, fmt.Errorf("game client is not configured")
		}
		if input.Limit < 0 {
			return nil, GameLogsResult{}, fmt.Errorf("limit must not be negative")
		}
		limit := input.Limit
		if limit == 0 {
			limit = defaultLogLimit
		}
		entries, err := listLogs(ctx, client, strings.TrimSpace(input.Filter), limit)
		if err != nil {
			return nil, GameLogsResult{}, err
		}
		return nil, GameLogsResult{Entries: entries}, nil
	}
}

func listLogs(ctx context.Context, client GameClient, filter string, limit int) ([]LogLine, error) {
	runCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
	defer cancel()

	entries, err := client.ListLogs(runCtx, gamegrpc.ListLogsRequest{Filter: filter, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("game logs failed: %w", err)
	}
	return logLines(entries), nil
}

func logLines(entries []logfeed.Entry) []LogLine {
	lines := make([]LogLine, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, LogLine{
			ID:    entry.ID,
			Level: string(entry.Level),
			Text:  entry.Text,
			At:    time.UnixMilli(entry.TS).UTC().Format(time.RFC3339),
		})
	}
	return lines
}
