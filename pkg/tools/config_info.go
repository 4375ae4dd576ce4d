package tools

import (
	"context"
	"fmt"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/normalize"
)

// --- jumpstarter_get_config ---

type GetConfigTool struct{ BaseTool }

func (t *GetConfigTool) Name() string        { return "jumpstarter_get_config" }
func (t *GetConfigTool) Description() string { return "Get current Jumpstarter configuration information" }
func (t *GetConfigTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *GetConfigTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	client, clientCfg, err := t.connect()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// The client accessor is authoritative; older config files nest the
	// endpoint under a client sub-object, hence the probing fallback.
	endpoint := client.Endpoint()
	if endpoint == "" {
		endpoint = "unknown"
		if v, ok := normalize.ResolveNested(clientCfg, []string{"client", "endpoint", "server"}, []string{"endpoint"}, nil).(string); ok && v != "" {
			endpoint = v
		}
	}

	policy := client.DriverPolicy()
	allow := policy.Allow
	if allow == nil {
		allow = []string{}
	}

	info := map[string]any{
		"type":              fmt.Sprintf("%T", clientCfg),
		"name":              clientCfg.Name,
		"endpoint":          endpoint,
		"namespace":         clientCfg.Namespace,
		"driver_allow_list": allow,
		"unsafe_drivers":    policy.Unsafe,
	}

	return &Report{Header: "Jumpstarter Configuration:", Body: info}, nil
}
