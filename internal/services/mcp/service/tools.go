package service

import (
	"github.com/louisbranch/flatline/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, client domain.GameClient, notify domain.ResourceUpdateNotifier) {
	mcp.AddTool(server, domain.GameStateTool(), domain.GameStateHandler(client))
	mcp.AddTool(server, domain.GameLogsTool(), domain.GameLogsHandler(client))
	mcp.AddTool(server, domain.AttackTool(), domain.AttackHandler(client, notify))
	mcp.AddTool(server, domain.CraftFirewallTool(), domain.CraftFirewallHandler(client, notify))
	mcp.AddTool(server, domain.StartVirusWaveTool(), domain.StartVirusWaveHandler(client, notify))
	mcp.AddTool(server, domain.DeployBotTool(), domain.DeployBotHandler(client, notify))
	mcp.AddTool(server, domain.RecallBotTool(), domain.RecallBotHandler(client, notify))
}

func registerResources(server *mcp.Server, client domain.GameClient) {
	server.AddResource(domain.StateResource(), domain.StateResourceHandler(client))
	server.AddResource(domain.LogsResource(), domain.LogsResourceHandler(client))
}
