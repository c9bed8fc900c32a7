package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all BotBay tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("botbay", "1.0.0")
	client := NewBotBayClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolGetPlan, h.HandleGetPlan)
	s.AddTool(ToolListBots, h.HandleListBots)
	s.AddTool(ToolActivateBot, h.HandleActivateBot)
	s.AddTool(ToolDeactivateBot, h.HandleDeactivateBot)
	s.AddTool(ToolCheckBotStatus, h.HandleCheckBotStatus)
	s.AddTool(ToolGetBotStats, h.HandleGetBotStats)
	s.AddTool(ToolGetDashboard, h.HandleGetDashboard)

	return s
}
