package tools

import (
	"context"
	"fmt"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// --- jumpstarter_power_control ---

type PowerControlTool struct{ BaseTool }

func (t *PowerControlTool) Name() string        { return "jumpstarter_power_control" }
func (t *PowerControlTool) Description() string { return "Control hardware power (on/off/cycle) through the jmp CLI" }
func (t *PowerControlTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"on", "off", "cycle"},
				"description": "Power action to perform",
			},
			"lease_id": map[string]interface{}{
				"type":        "string",
				"description": "Lease id scoping the command to a specific reservation",
			},
		},
		"required": []string{"action"},
	}
}

func (t *PowerControlTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	action := getStringArg(args, "action", "")
	leaseID := getStringArg(args, "lease_id", "")

	switch action {
	case "on", "off", "cycle":
	default:
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "action must be one of: on, off, cycle",
			Tool:    t.Name(),
			Detail:  fmt.Sprintf("got %q", action),
		}
	}

	result, err := t.Runner.Run(ctx, t.Cfg.Executable, []string{"power", action}, leaseID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to execute power %s: %w", action, err)
	}

	body := dispatch.Body(dispatch.Executed{Result: result})
	body["action"] = action

	return &Report{Header: "Power Control:", Body: body}, nil
}
