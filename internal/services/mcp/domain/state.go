package domain

import (
	"context"
	"fmt"

	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GameStateInput is the (empty) input of game_state.
type GameStateInput struct{}

// ServerGauges mirrors the operator's server telemetry.
type ServerGauges struct {
	CPU      int `json:"cpu" jsonschema:"CPU usage percent"`
	RAM      int `json:"ram" jsonschema:"RAM usage percent"`
	Firewall int `json:"firewall" jsonschema:"firewall integrity percent; 0 means flatlined"`
	Load     int `json:"load" jsonschema:"network load percent"`
}

// BotSummary is one fleet unit.
type BotSummary struct {
	ID     string `json:"id" jsonschema:"bot identifier"`
	Status string `json:"status" jsonschema:"bot status (idle, deployed, destroyed)"`
	Model  string `json:"model,omitempty" jsonschema:"bot model identifier"`
}

// GameStateResult is the output of game_state.
type GameStateResult struct {
	Status    string       `json:"status" jsonschema:"engine status (uninitialized, loading, ready, closed)"`
	Username  string       `json:"username" jsonschema:"operator handle"`
	Nickname  string       `json:"nickname,omitempty" jsonschema:"operator profile nickname"`
	Credits   int          `json:"credits" jsonschema:"credit balance"`
	Fragments int          `json:"fragments" jsonschema:"data fragment balance"`
	Server    ServerGauges `json:"server" jsonschema:"server telemetry"`
	Bots      []BotSummary `json:"bots" jsonschema:"bot fleet"`
	Flatlined bool         `json:"flatlined" jsonschema:"true when the firewall has collapsed"`
}

// GameStateTool defines the game_state tool.
func GameStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "game_state",
		Description: "Returns the operator's resources, server telemetry and bot fleet.",
	}
}

// GameStateHandler reads the current state.
func GameStateHandler(client GameClient) mcp.ToolHandlerFor[GameStateInput, GameStateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GameStateInput) (*mcp.CallToolResult, GameStateResult, error) {
		if client == nil {
			return nil, GameStateResult{}, fmt.Errorf("game client is not configured")
		}
		result, err := fetchState(ctx, client)
		if err != nil {
			return nil, GameStateResult{}, err
		}
		return nil, result, nil
	}
}

func fetchState(ctx context.Context, client GameClient) (GameStateResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
	defer cancel()

	resp, err := client.GetState(runCtx)
	if err != nil {
		return GameStateResult{}, fmt.Errorf("game state failed: %w", err)
	}
	return stateResult(string(resp.Status), resp.Player, resp.Profile), nil
}

func stateResult(status string, state player.State, profile player.Profile) GameStateResult {
	bots := make([]BotSummary, 0, len(state.Bots))
	for _, bot := range state.Bots {
		bots = append(bots, BotSummary{ID: bot.ID, Status: string(bot.Status), Model: bot.Model})
	}
	return GameStateResult{
		Status:    status,
		Username:  state.Username,
		Nickname:  profile.Nickname,
		Credits:   state.Credits,
		Fragments: state.Fragments,
		Server: ServerGauges{
			CPU:      state.Server.CPU,
			RAM:      state.Server.RAM,
			Firewall: state.Server.Firewall,
			Load:     state.Server.Load,
		},
		Bots:      bots,
		Flatlined: state.Flatlined(),
	}
}
