package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common engagement workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	// Weekly engagement session prompt
	srv.Prompt("weekly_engagement").
		Description("Guide for working through this week's engagement board. Helps refresh tasks, pick the highest impact ones, and keep the streak alive.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Weekly Engagement Session",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me work through this week's engagement board. Please:

1. Check the current board using the engage://board resource
2. Review the open tasks using the engage://board/tasks resource
3. Look at the game state using the engage://board/stats resource

If the board is empty or stale, refresh it with the tasks.refresh tool.

Based on this information:
- Identify the 3 tasks with the highest impact on the profile score
- Point out tasks that keep the weekly streak alive
- Flag tasks that look like they do not apply to this business

For tasks that do not apply, suggest excluding them with the
task.exclude tool and a short reason. For the rest, walk me through
completing them one at a time with the task.complete tool.`,
						},
					},
				},
			}, nil
		})

	// Task triage prompt
	srv.Prompt("task_triage").
		Description("Decide for each open task whether to complete it now, keep it for later, or exclude it.").
		Argument("focus", "Optional focus area: profile, engagement, or content", false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			focus := args["focus"]
			focusLine := ""
			if focus != "" {
				focusLine = fmt.Sprintf("\nFocus on %s tasks first.\n", focus)
			}

			return &mcp.PromptResult{
				Description: "Task Triage Session",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Triage my open engagement tasks. Please:

1. List the open tasks using the engage://board/tasks resource
2. For each task, recommend one of:
   - Complete now (quick wins and high points first)
   - Keep for later this week
   - Exclude (does not apply to this business; give the reason)
%s
Summarize the plan as a short ordered list, then execute the
completions I confirm with the task.complete tool and the exclusions
with the task.exclude tool.`, focusLine),
						},
					},
				},
			}, nil
		})

	return nil
}
