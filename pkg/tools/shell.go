package tools

import (
	"context"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// --- jumpstarter_execute_shell ---

type ExecuteShellTool struct{ BaseTool }

func (t *ExecuteShellTool) Name() string        { return "jumpstarter_execute_shell" }
func (t *ExecuteShellTool) Description() string { return "Execute shell commands on leased hardware" }
func (t *ExecuteShellTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Command argument vector to execute",
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Label selector identifying the target exporter",
			},
			"lease_name": map[string]interface{}{
				"type":        "string",
				"description": "Optional lease name to execute under",
			},
		},
		"required": []string{"command"},
	}
}

func (t *ExecuteShellTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	command := getStringSliceArg(args, "command")
	if len(command) == 0 {
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "command is required and must be a list of strings",
			Tool:    t.Name(),
		}
	}
	selector := getStringArg(args, "selector", "")
	leaseName := getStringArg(args, "lease_name", "")

	var name any
	if leaseName != "" {
		name = leaseName
	}

	body := dispatch.Body(dispatch.Stubbed{Params: map[string]any{
		"command":    command,
		"selector":   selector,
		"lease_name": name,
	}})

	return &Report{
		Header:  "Shell Execution Request:",
		Body:    body,
		Trailer: "No command was executed. Shell execution requires lease management and shell integration through the jmp CLI.",
	}, nil
}
