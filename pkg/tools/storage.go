package tools

import (
	"context"
	"strings"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/dispatch"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// --- jumpstarter_storage_flash ---

type StorageFlashTool struct{ BaseTool }

func (t *StorageFlashTool) Name() string        { return "jumpstarter_storage_flash" }
func (t *StorageFlashTool) Description() string { return "Flash an image to target storage on leased hardware" }
func (t *StorageFlashTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"image_url": map[string]interface{}{
				"type":        "string",
				"description": "URL or path of the image to flash",
			},
			"target": map[string]interface{}{
				"type":        "string",
				"description": "Target storage device",
			},
			"console_debug": map[string]interface{}{
				"type":        "boolean",
				"description": "Enable console debug output during flashing",
			},
			"lease_id": map[string]interface{}{
				"type":        "string",
				"description": "Lease id scoping the command to a specific reservation",
			},
		},
		"required": []string{"image_url"},
	}
}

func (t *StorageFlashTool) Run(ctx context.Context, args map[string]interface{}) (*Report, error) {
	imageURL := getStringArg(args, "image_url", "")
	if imageURL == "" {
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "image_url is required",
			Tool:    t.Name(),
		}
	}
	target := getStringArg(args, "target", "")
	consoleDebug := getBoolArg(args, "console_debug", false)

	argv := []string{t.Cfg.Executable, "storage", "flash"}
	if target != "" {
		argv = append(argv, "--target", target)
	}
	if consoleDebug {
		argv = append(argv, "--console-debug")
	}
	argv = append(argv, imageURL)

	var tgt any
	if target != "" {
		tgt = target
	}

	body := dispatch.Body(dispatch.Stubbed{Params: map[string]any{
		"command":       strings.Join(argv, " "),
		"image_url":     imageURL,
		"target":        tgt,
		"console_debug": consoleDebug,
	}})

	return &Report{
		Header:  "Storage Flash Request:",
		Body:    body,
		Trailer: "No flash was performed. Actual flashing would execute the command above and stream progress.",
	}, nil
}
