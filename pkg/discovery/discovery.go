// Package discovery polls the Jumpstarter controller for availability. The
// tool surface itself is fixed; availability only feeds the readiness
// endpoint and the get_config report, so a controller outage is visible
// without hiding tools from the agent.
package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	k8sdiscovery "k8s.io/client-go/discovery"
	"k8s.io/client-go/rest"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/config"
	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/jumpstarter"
)

const apiGroup = "jumpstarter.dev"

type OnChangeFunc func(available bool)

type Discovery struct {
	cfg      *config.Config
	onChange OnChangeFunc
	interval time.Duration
	probeFn  func(context.Context) bool

	mu        sync.RWMutex
	available bool
	ready     bool
}

func New(cfg *config.Config, onChange OnChangeFunc) *Discovery {
	d := &Discovery{
		cfg:      cfg,
		onChange: onChange,
		interval: 60 * time.Second,
	}
	d.probeFn = d.probe
	return d
}

// Available reports whether the controller API group was reachable on the
// last poll.
func (d *Discovery) Available() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.available
}

// IsReady reports whether the initial poll has completed. The server is
// ready even when the controller is down: tool calls surface that per
// invocation.
func (d *Discovery) IsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

func (d *Discovery) Start(ctx context.Context) {
	d.poll(ctx)
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.poll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *Discovery) poll(ctx context.Context) {
	available := d.probeFn(ctx)

	d.mu.Lock()
	changed := available != d.available || !d.ready
	d.available = available
	d.ready = true
	d.mu.Unlock()

	if changed && d.onChange != nil {
		d.onChange(available)
	}
}

// probe checks that a client configuration resolves and that the controller
// serves the jumpstarter API group.
func (d *Discovery) probe(ctx context.Context) bool {
	clientCfg, err := jumpstarter.LoadClientConfig(d.cfg)
	if err != nil {
		slog.Debug("discovery: no usable client configuration", "error", err)
		return false
	}

	dc, err := k8sdiscovery.NewDiscoveryClientForConfig(&rest.Config{
		Host:        clientCfg.Endpoint,
		BearerToken: clientCfg.Token,
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: clientCfg.Insecure,
		},
	})
	if err != nil {
		slog.Warn("discovery: failed to build discovery client", "error", err)
		return false
	}

	groups, err := dc.ServerGroups()
	if err != nil {
		slog.Debug("discovery: controller unreachable", "endpoint", clientCfg.Endpoint, "error", err)
		return false
	}

	for _, group := range groups.Groups {
		if group.Name == apiGroup {
			return true
		}
	}
	slog.Warn("discovery: controller reachable but API group missing", "group", apiGroup)
	return false
}
