package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/flatline/internal/platform/grpc"
	"github.com/louisbranch/flatline/internal/platform/id"
	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs refreshed after every action.
const (
	StateResourceURI = "flatline://state"
	LogsResourceURI  = "flatline://logs"
)

var invocationIDs = id.NewGenerator()

// ActionResult is the output of every action tool.
type ActionResult struct {
	Success    bool      `json:"success" jsonschema:"true when the action committed"`
	Code       string    `json:"code,omitempty" jsonschema:"refusal code when success is false"`
	Message    string    `json:"message" jsonschema:"headline of the outcome"`
	Suggestion string    `json:"suggestion,omitempty" jsonschema:"closest known target for a mistyped attack"`
	Persisted  bool      `json:"persisted" jsonschema:"true when the new state reached storage"`
	Entries    []LogLine `json:"entries" jsonschema:"log entries the action produced"`
}

// AttackInput is the input of attack.
type AttackInput struct {
	Target string `json:"target" jsonschema:"target node identifier, e.g. hub-7734"`
}

// DeployBotInput is the input of deploy_bot.
type DeployBotInput struct {
	Model string `json:"model" jsonschema:"bot model identifier, e.g. scout-alpha"`
}

// RecallBotInput is the input of recall_bot.
type RecallBotInput struct {
	BotID string `json:"bot_id" jsonschema:"identifier of a deployed bot"`
}

// NoInput is the input of actions without parameters.
type NoInput struct{}

// AttackTool defines the attack tool.
func AttackTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "attack",
		Description: "Launches an attack on a hostile target node. A breach awards credits only; a trace damages the firewall and spikes server load. Refused while the server is offline.",
	}
}

// CraftFirewallTool defines the craft_firewall tool.
func CraftFirewallTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "craft_firewall",
		Description: "Spends credits and fragments to reinforce the firewall.",
	}
}

// StartVirusWaveTool defines the start_virus_wave tool.
func StartVirusWaveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "start_virus_wave",
		Description: "Starts a virus wave. Damage that gets past the firewall hits the server and may destroy a deployed bot; a fully blocked wave yields fragments.",
	}
}

// DeployBotTool defines the deploy_bot tool.
func DeployBotTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "deploy_bot",
		Description: "Spends credits to deploy a bot model into the fleet. Refused while the server is offline.",
	}
}

// RecallBotTool defines the recall_bot tool.
func RecallBotTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recall_bot",
		Description: "Recalls a deployed bot back to idle.",
	}
}

// AttackHandler runs attack.launch.
func AttackHandler(client GameClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[AttackInput, ActionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AttackInput) (*mcp.CallToolResult, ActionResult, error) {
		payload := action.AttackPayload{Target: strings.TrimSpace(input.Target)}
		return runAction(ctx, client, notify, action.CommandTypeAttack, payload)
	}
}

// CraftFirewallHandler runs firewall.craft.
func CraftFirewallHandler(client GameClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[NoInput, ActionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, ActionResult, error) {
		return runAction(ctx, client, notify, action.CommandTypeCraftWall, nil)
	}
}

// StartVirusWaveHandler runs virus.wave.start.
func StartVirusWaveHandler(client GameClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[NoInput, ActionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, ActionResult, error) {
		return runAction(ctx, client, notify, action.CommandTypeVirusWave, nil)
	}
}

// DeployBotHandler runs bot.deploy.
func DeployBotHandler(client GameClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[DeployBotInput, ActionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DeployBotInput) (*mcp.CallToolResult, ActionResult, error) {
		payload := action.DeployBotPayload{Model: strings.TrimSpace(input.Model)}
		return runAction(ctx, client, notify, action.CommandTypeDeployBot, payload)
	}
}

// RecallBotHandler runs bot.recall.
func RecallBotHandler(client GameClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[RecallBotInput, ActionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecallBotInput) (*mcp.CallToolResult, ActionResult, error) {
		payload := action.RecallBotPayload{BotID: strings.TrimSpace(input.BotID)}
		return runAction(ctx, client, notify, action.CommandTypeRecallBot, payload)
	}
}

func runAction(ctx context.Context, client GameClient, notify ResourceUpdateNotifier, typ command.Type, payload any) (*mcp.CallToolResult, ActionResult, error) {
	if client == nil {
		return nil, ActionResult{}, fmt.Errorf("game client is not configured")
	}
	invocationID, err := invocationIDs.New(time.Now())
	if err != nil {
		return nil, ActionResult{}, fmt.Errorf("generate invocation id: %w", err)
	}
	// Actions wait out the engine's processing delay, so they get a longer budget.
	runCtx, cancel := context.WithTimeout(ctx, 2*grpcCallTimeout)
	defer cancel()
	runCtx = platformgrpc.OutgoingRequestID(runCtx, "mcp-"+invocationID)

	result, err := client.Execute(runCtx, string(typ), payload)
	if err != nil {
		return nil, ActionResult{}, fmt.Errorf("%s failed: %w", typ, err)
	}
	out := actionResult(result)
	if out.Success {
		NotifyResourceUpdates(ctx, notify, StateResourceURI, LogsResourceURI)
	} else if len(out.Entries) > 0 {
		NotifyResourceUpdates(ctx, notify, LogsResourceURI)
	}
	return nil, out, nil
}

func actionResult(result engine.Result) ActionResult {
	out := ActionResult{
		Success:   result.Success,
		Code:      result.Code,
		Message:   result.Message,
		Persisted: result.Persisted,
		Entries:   logLines(result.Entries),
	}
	if suggestion, ok := result.Detail["suggestion"].(string); ok {
		out.Suggestion = suggestion
	}
	return out
}
