package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/normalize"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// --- jumpstarter_list_leases ---

type ListLeasesTool struct{ BaseTool }

func (t *ListLeasesTool) Name() string        { return "jumpstarter_list_leases" }
func (t *ListLeasesTool) Description() string { return "List active hardware leases" }
func (t *ListLeasesTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Label selector to filter leases",
			},
		},
	}
}

func (t *ListLeasesTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	selector := getStringArg(args, "selector", "")

	client, _, err := t.connect()
	if err != nil {
		return nil, err
	}

	raw, err := client.ListLeases(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}

	items := normalize.CollectionUnwrap(raw, "leases", "items")
	slog.Debug("list_leases: unwrapped collection", "count", len(items))

	records := make([]normalize.LeaseRecord, 0, len(items))
	for _, item := range items {
		records = append(records, normalize.NormalizeLease(item))
	}

	return &Report{Header: "Active Leases:", Body: records}, nil
}

// --- jumpstarter_create_lease ---

type CreateLeaseTool struct{ BaseTool }

func (t *CreateLeaseTool) Name() string        { return "jumpstarter_create_lease" }
func (t *CreateLeaseTool) Description() string { return "Create a hardware lease for testing" }
func (t *CreateLeaseTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Label selector identifying the exporter to lease (e.g. 'board-type=j784s4evm,enabled=true')",
			},
			"lease_name": map[string]interface{}{
				"type":        "string",
				"description": "Optional name for the lease",
			},
			"duration_minutes": map[string]interface{}{
				"type":        "integer",
				"description": "Lease duration in minutes (default 30)",
			},
		},
		"required": []string{"selector"},
	}
}

func (t *CreateLeaseTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	selector := getStringArg(args, "selector", "")
	leaseName := getStringArg(args, "lease_name", "")
	durationMinutes := getIntArg(args, "duration_minutes", 30)

	if strings.TrimSpace(selector) == "" {
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "selector is required for creating a lease",
			Tool:    t.Name(),
			Detail:  "e.g. 'board-type=j784s4evm,enabled=true'",
		}
	}

	client, _, err := t.connect()
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	slog.Info("create_lease: requesting lease", "selector", selector, "duration", duration)

	raw, err := client.CreateLease(ctx, selector, duration)
	if err != nil {
		return nil, fmt.Errorf("failed to create lease: %w", err)
	}

	record := normalize.NormalizeLeaseCreation(raw, selector, leaseName, durationMinutes)

	return &Report{
		Header:  "Lease Created Successfully!",
		Body:    record,
		Trailer: "You can now use this lease with other Jumpstarter tools by referencing the lease_id.",
	}, nil
}
