package tools

import (
	"context"
	"fmt"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// --- jumpstarter_run_command ---

type RunCommandTool struct{ BaseTool }

func (t *RunCommandTool) Name() string        { return "jumpstarter_run_command" }
func (t *RunCommandTool) Description() string { return "Execute arbitrary jmp commands within a lease context" }
func (t *RunCommandTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Argument vector passed to the jmp executable",
			},
			"lease_id": map[string]interface{}{
				"type":        "string",
				"description": "Lease id scoping the command to a specific reservation",
			},
		},
		"required": []string{"command"},
	}
}

func (t *RunCommandTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	command := getStringSliceArg(args, "command")
	if len(command) == 0 {
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "command is required and must be a list of strings",
			Tool:    t.Name(),
		}
	}
	leaseID := getStringArg(args, "lease_id", "")

	result, err := t.Runner.Run(ctx, t.Cfg.Executable, command, leaseID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to execute command: %w", err)
	}

	body := dispatch.Body(dispatch.Executed{Result: result})
	body["command"] = append([]string{t.Cfg.Executable}, command...)
	if result.Succeeded {
		body["status"] = "Command executed successfully"
	} else {
		body["status"] = fmt.Sprintf("Command failed with exit code %d", result.ExitCode)
	}

	return &Report{Header: "Command Execution:", Body: body}, nil
}
