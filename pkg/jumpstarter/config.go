// Package jumpstarter is the boundary to the Jumpstarter controller: it
// loads client configuration and exposes the list/create operations the tool
// layer consumes. The controller stores exporters and leases as custom
// resources, so everything it returns is loosely shaped; callers are expected
// to run results through pkg/normalize.
package jumpstarter

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/config"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// DriverPolicy restricts which exporter drivers a client may load.
type DriverPolicy struct {
	Allow  []string `json:"allow"`
	Unsafe bool     `json:"unsafe"`
}

// ClientConfig is a usable client configuration, either constructed from the
// environment or resolved from the user config file. It is loaded fresh for
// every tool invocation; nothing is cached across calls.
type ClientConfig struct {
	Name      string       `json:"name"`
	Endpoint  string       `json:"endpoint"`
	Token     string       `json:"token"`
	Namespace string       `json:"namespace"`
	Insecure  bool         `json:"tls-insecure,omitempty"`
	Drivers   DriverPolicy `json:"drivers"`
}

// userConfig mirrors the on-disk user config file, which names one of its
// client entries as current.
type userConfig struct {
	CurrentClient string         `json:"current-client"`
	Clients       []ClientConfig `json:"clients"`
}

// LoadClientConfig follows the same resolution order as the jmp CLI: build a
// config from the environment when the required variables are set, otherwise
// load (or create) the user config file and take its current-client entry.
// If neither path yields a usable configuration a CONFIG_ERROR is returned.
func LoadClientConfig(cfg *config.Config) (*ClientConfig, error) {
	if cfg.Endpoint != "" && cfg.Token != "" {
		return &ClientConfig{
			Name:      "env",
			Endpoint:  cfg.Endpoint,
			Token:     cfg.Token,
			Namespace: cfg.Namespace,
			Insecure:  cfg.TLSInsecure,
		}, nil
	}

	uc, err := loadOrCreateUserConfig(cfg.UserConfigPath)
	if err != nil {
		return nil, &types.MCPError{
			Code:    types.ErrCodeConfigError,
			Message: "failed to load user config",
			Detail:  err.Error(),
		}
	}

	for i := range uc.Clients {
		if uc.Clients[i].Name == uc.CurrentClient && uc.CurrentClient != "" {
			cc := uc.Clients[i]
			if cc.Namespace == "" {
				cc.Namespace = cfg.Namespace
			}
			return &cc, nil
		}
	}

	return nil, &types.MCPError{
		Code:    types.ErrCodeConfigError,
		Message: "no client configuration available",
		Detail:  "run 'jmp login' or set JMP_ENDPOINT and JMP_TOKEN",
	}
}

// loadOrCreateUserConfig reads the user config file, writing an empty
// skeleton first if the file does not exist yet.
func loadOrCreateUserConfig(path string) (*userConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		skeleton := &userConfig{Clients: []ClientConfig{}}
		if err := writeUserConfig(path, skeleton); err != nil {
			return nil, err
		}
		return skeleton, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var uc userConfig
	if err := yaml.Unmarshal(data, &uc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &uc, nil
}

func writeUserConfig(path string, uc *userConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(uc)
	if err != nil {
		return fmt.Errorf("encoding user config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
