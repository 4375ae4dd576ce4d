package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/config"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/jumpstarter"
)

type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Run(ctx context.Context, args map[string]interface{}) (*Report, error)
}

// Report is the uniform tool output: a human-readable header line, a
// JSON-formatted body, and an optional explanatory trailer (used by stub
// operations to state that nothing was executed).
type Report struct {
	Header  string
	Body    any
	Trailer string
}

// Render formats the report as "<header>\n<indented json>" plus the trailer
// when present.
func (r *Report) Render() (string, error) {
	body, err := json.MarshalIndent(r.Body, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report body: %w", err)
	}
	out := r.Header + "\n" + string(body)
	if r.Trailer != "" {
		out += "\n\n" + r.Trailer
	}
	return out, nil
}

// ConfigLoader resolves a client configuration for one tool invocation.
type ConfigLoader func(*config.Config) (*jumpstarter.ClientConfig, error)

// ClientFactory builds a controller client from a loaded configuration.
type ClientFactory func(*jumpstarter.ClientConfig) (jumpstarter.Client, error)

// BaseTool carries the collaborators every tool operation needs. LoadConfig
// and NewClient default to the real jumpstarter implementations; tests swap
// in fakes.
type BaseTool struct {
	Cfg        *config.Config
	LoadConfig ConfigLoader
	NewClient  ClientFactory
	Runner     *dispatch.Runner
}

// loadConfig resolves a fresh client configuration. Configurations are never
// cached across invocations.
func (b BaseTool) loadConfig() (*jumpstarter.ClientConfig, error) {
	loader := b.LoadConfig
	if loader == nil {
		loader = jumpstarter.LoadClientConfig
	}
	return loader(b.Cfg)
}

// connect loads a configuration and opens a controller client from it. The
// loaded configuration is returned alongside the client for callers that
// report on it.
func (b BaseTool) connect() (jumpstarter.Client, *jumpstarter.ClientConfig, error) {
	clientCfg, err := b.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	factory := b.NewClient
	if factory == nil {
		factory = jumpstarter.Connect
	}
	client, err := factory(clientCfg)
	if err != nil {
		return nil, nil, err
	}
	return client, clientCfg, nil
}

func getStringArg(args map[string]interface{}, key string, defaultVal string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

func getIntArg(args map[string]interface{}, key string, defaultVal int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return defaultVal
}

func getBoolArg(args map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

func getStringSliceArg(args map[string]interface{}, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil
			}
			out = append(out, str)
		}
		return out
	}
	return nil
}
