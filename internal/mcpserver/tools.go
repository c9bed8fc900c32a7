package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the BotBay MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolGetPlan = mcp.NewTool("get_plan",
	mcp.WithDescription(
		"Get the account's current plan, its concurrent-bot limit, and how many "+
			"activation slots remain. Use this before activating a bot to check quota."),
)

var ToolListBots = mcp.NewTool("list_bots",
	mcp.WithDescription(
		"List all bots with activation records, active and expired. "+
			"Shows each bot's trial window and current status."),
)

var ToolActivateBot = mcp.NewTool("activate_bot",
	mcp.WithDescription(
		"Activate a bot's trial window, or re-arm an existing bot with a fresh window. "+
			"Fails with a quota error if the plan's concurrent-bot limit is reached. "+
			"Re-activating a bot you already have does not consume a new slot."),
	mcp.WithNumber("bot_id",
		mcp.Required(),
		mcp.Description("The bot's numeric id")),
	mcp.WithString("bot_name",
		mcp.Required(),
		mcp.Description("Display name for the bot")),
)

var ToolDeactivateBot = mcp.NewTool("deactivate_bot",
	mcp.WithDescription(
		"Deactivate a bot: removes its activation record and clears its usage counters. "+
			"Frees one quota slot immediately."),
	mcp.WithNumber("bot_id",
		mcp.Required(),
		mcp.Description("The bot's numeric id")),
)

var ToolCheckBotStatus = mcp.NewTool("check_bot_status",
	mcp.WithDescription(
		"Check whether a bot is currently active, and see its trial window "+
			"(activation and expiry timestamps)."),
	mcp.WithNumber("bot_id",
		mcp.Required(),
		mcp.Description("The bot's numeric id")),
)

var ToolGetBotStats = mcp.NewTool("get_bot_stats",
	mcp.WithDescription(
		"Get a bot's usage counters: distinct users, message count, last-active "+
			"recency, and performance score."),
	mcp.WithNumber("bot_id",
		mcp.Required(),
		mcp.Description("The bot's numeric id")),
)

var ToolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription(
		"Get the full dashboard snapshot: plan, quota usage, and every bot's "+
			"status joined with its usage counters."),
)
