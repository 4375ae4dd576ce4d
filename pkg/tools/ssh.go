package tools

import (
	"context"
	"fmt"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// --- jumpstarter_ssh_forward ---

type SSHForwardTool struct{ BaseTool }

func (t *SSHForwardTool) Name() string        { return "jumpstarter_ssh_forward" }
func (t *SSHForwardTool) Description() string { return "Set up SSH port forwarding to the device under test" }
func (t *SSHForwardTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"local_port": map[string]interface{}{
				"type":        "integer",
				"description": "Local port to forward (default 2222)",
			},
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"start", "stop", "status"},
				"description": "Forwarding action (default start)",
			},
			"lease_id": map[string]interface{}{
				"type":        "string",
				"description": "Lease id scoping the command to a specific reservation",
			},
		},
	}
}

func (t *SSHForwardTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	localPort := getIntArg(args, "local_port", 2222)
	action := getStringArg(args, "action", "start")

	var params map[string]any
	switch action {
	case "start":
		params = map[string]any{
			"action":     "start_forwarding",
			"local_port": localPort,
			"command":    fmt.Sprintf("%s ssh forward-tcp %d", t.Cfg.Executable, localPort),
			"usage":      fmt.Sprintf("ssh -p %d -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null root@localhost", localPort),
			"status":     "Would start port forwarding",
		}
	case "status":
		params = map[string]any{
			"action":     "check_status",
			"local_port": localPort,
			"status":     "Would check forwarding status",
		}
	case "stop":
		params = map[string]any{
			"action":     "stop_forwarding",
			"local_port": localPort,
			"status":     "Would stop port forwarding",
		}
	default:
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "action must be one of: start, stop, status",
			Tool:    t.Name(),
			Detail:  fmt.Sprintf("got %q", action),
		}
	}

	return &Report{
		Header:  "SSH Port Forwarding:",
		Body:    dispatch.Body(dispatch.Stubbed{Params: params}),
		Trailer: "No forwarding was set up: background forwarding processes are not managed by this server.",
	}, nil
}
