package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/normalize"
)

// --- jumpstarter_list_exporters ---

type ListExportersTool struct{ BaseTool }

func (t *ListExportersTool) Name() string        { return "jumpstarter_list_exporters" }
func (t *ListExportersTool) Description() string { return "List available hardware exporters and their status" }
func (t *ListExportersTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Label selector to filter exporters (e.g. 'board-type=j784s4evm')",
			},
			"include_leases": map[string]interface{}{
				"type":        "boolean",
				"description": "Include lease information (default false)",
			},
			"include_online": map[string]interface{}{
				"type":        "boolean",
				"description": "Include online status (default true)",
			},
		},
	}
}

func (t *ListExportersTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	selector := getStringArg(args, "selector", "")
	includeLeases := getBoolArg(args, "include_leases", false)
	includeOnline := getBoolArg(args, "include_online", true)

	client, _, err := t.connect()
	if err != nil {
		return nil, err
	}

	raw, err := client.ListExporters(ctx, selector, includeLeases, includeOnline)
	if err != nil {
		return nil, fmt.Errorf("failed to list exporters: %w", err)
	}

	items := normalize.CollectionUnwrap(raw, "exporters", "items")
	slog.Debug("list_exporters: unwrapped collection", "count", len(items))

	records := make([]normalize.ExporterRecord, 0, len(items))
	for _, item := range items {
		records = append(records, normalize.NormalizeExporter(item))
	}

	return &Report{Header: "Available Exporters:", Body: records}, nil
}
