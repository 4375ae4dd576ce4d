package tools

import (
	"context"
	"fmt"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// --- jumpstarter_serial_console ---

type SerialConsoleTool struct{ BaseTool }

func (t *SerialConsoleTool) Name() string        { return "jumpstarter_serial_console" }
func (t *SerialConsoleTool) Description() string { return "Inspect or interact with the serial console of leased hardware" }
func (t *SerialConsoleTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"start", "send_command", "info"},
				"description": "Serial console action",
			},
			"command": map[string]interface{}{
				"type":        "string",
				"description": "Command to send (required for send_command)",
			},
			"lease_id": map[string]interface{}{
				"type":        "string",
				"description": "Lease id scoping the command to a specific reservation",
			},
		},
		"required": []string{"action"},
	}
}

func (t *SerialConsoleTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	action := getStringArg(args, "action", "")
	command := getStringArg(args, "command", "")
	leaseID := getStringArg(args, "lease_id", "")

	switch action {
	case "info":
		result, err := t.Runner.Run(ctx, t.Cfg.Executable, []string{"serial", "--help"}, leaseID, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query serial console info: %w", err)
		}
		body := dispatch.Body(dispatch.Executed{Result: result})
		body["action"] = action
		return &Report{Header: "Serial Console Information:", Body: body}, nil

	case "start":
		// Interactive consoles cannot run over the tool protocol; echo what
		// the caller should run instead.
		body := dispatch.Body(dispatch.Stubbed{Params: map[string]any{
			"action":  action,
			"command": fmt.Sprintf("%s serial start-console", t.Cfg.Executable),
		}})
		return &Report{
			Header:  "Serial Console Request:",
			Body:    body,
			Trailer: "The MCP server cannot provide interactive console access; no console was started. Use action='send_command' to send specific commands.",
		}, nil

	case "send_command":
		if command == "" {
			return nil, &types.MCPError{
				Code:    types.ErrCodeInvalidInput,
				Message: "command parameter required for send_command action",
				Tool:    t.Name(),
			}
		}
		body := dispatch.Body(dispatch.Stubbed{Params: map[string]any{
			"action":  action,
			"command": command,
		}})
		return &Report{
			Header:  "Serial Console Request:",
			Body:    body,
			Trailer: "No command was sent: persistent serial connection management is not implemented.",
		}, nil

	default:
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "action must be one of: start, send_command, info",
			Tool:    t.Name(),
			Detail:  fmt.Sprintf("got %q", action),
		}
	}
}
