package jumpstarter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

var (
	exportersGVR = schema.GroupVersionResource{Group: "jumpstarter.dev", Version: "v1alpha1", Resource: "exporters"}
	leasesGVR    = schema.GroupVersionResource{Group: "jumpstarter.dev", Version: "v1alpha1", Resource: "leases"}
)

// Client is the pinned contract against the Jumpstarter controller. List and
// create results are deliberately loose (the controller's object shapes are
// not stable from this server's point of view); callers normalize them.
type Client interface {
	Endpoint() string
	DriverPolicy() DriverPolicy
	ListExporters(ctx context.Context, filter string, includeLeases, includeOnline bool) (any, error)
	ListLeases(ctx context.Context, filter string) (any, error)
	CreateLease(ctx context.Context, selector string, duration time.Duration) (any, error)
}

type controllerClient struct {
	cfg *ClientConfig
	dyn dynamic.Interface

	leasesCreated metric.Int64Counter
}

// Connect builds a controller client from a loaded client configuration.
func Connect(cfg *ClientConfig) (Client, error) {
	restCfg := &rest.Config{
		Host:        cfg.Endpoint,
		BearerToken: cfg.Token,
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: cfg.Insecure,
		},
	}

	dyn, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("creating controller client for %s: %w", cfg.Endpoint, err)
	}

	c := &controllerClient{cfg: cfg, dyn: dyn}

	meter := otel.Meter("jumpstarter-mcp/client")
	c.leasesCreated, err = meter.Int64Counter(
		"jmp.leases.created",
		metric.WithDescription("Number of leases created through the MCP server"),
	)
	if err != nil {
		slog.Warn("jumpstarter: failed to create lease counter", "error", err)
	}

	return c, nil
}

func (c *controllerClient) Endpoint() string {
	return c.cfg.Endpoint
}

func (c *controllerClient) DriverPolicy() DriverPolicy {
	return c.cfg.Drivers
}

// ListExporters lists exporter objects, optionally narrowed by a label
// selector. The controller embeds lease and online status on the objects it
// returns; includeLeases and includeOnline are part of the client contract
// for callers that want them stripped, but stripping happens at the
// normalization layer, not here.
func (c *controllerClient) ListExporters(ctx context.Context, filter string, includeLeases, includeOnline bool) (any, error) {
	list, err := c.dyn.Resource(exportersGVR).Namespace(c.cfg.Namespace).List(ctx, metav1.ListOptions{LabelSelector: filter})
	if err != nil {
		return nil, c.unavailable("listing exporters", err)
	}
	return list, nil
}

func (c *controllerClient) ListLeases(ctx context.Context, filter string) (any, error) {
	list, err := c.dyn.Resource(leasesGVR).Namespace(c.cfg.Namespace).List(ctx, metav1.ListOptions{LabelSelector: filter})
	if err != nil {
		return nil, c.unavailable("listing leases", err)
	}
	return list, nil
}

// unavailable wraps a failed controller request so the agent sees a coded
// error naming the endpoint rather than a bare transport message.
func (c *controllerClient) unavailable(op string, err error) error {
	return &types.MCPError{
		Code:    types.ErrCodeControllerUnavailable,
		Message: fmt.Sprintf("%s failed: controller %s unreachable or rejected the request", op, c.cfg.Endpoint),
		Detail:  err.Error(),
	}
}

// CreateLease requests a time-bounded reservation for an exporter matching
// the selector. The lease name is derived from a ULID so concurrent requests
// never collide.
func (c *controllerClient) CreateLease(ctx context.Context, selector string, duration time.Duration) (any, error) {
	matchLabels, err := parseSelector(selector)
	if err != nil {
		return nil, err
	}

	name := "lease-" + strings.ToLower(ulid.Make().String())

	lease := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "jumpstarter.dev/v1alpha1",
		"kind":       "Lease",
		"metadata": map[string]any{
			"name":      name,
			"namespace": c.cfg.Namespace,
		},
		"spec": map[string]any{
			"selector": map[string]any{
				"matchLabels": matchLabels,
			},
			"duration": duration.String(),
		},
	}}

	created, err := c.dyn.Resource(leasesGVR).Namespace(c.cfg.Namespace).Create(ctx, lease, metav1.CreateOptions{})
	if err != nil {
		return nil, c.unavailable("creating lease", err)
	}

	if c.leasesCreated != nil {
		c.leasesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("selector", selector)))
	}
	slog.Info("jumpstarter: lease created", "name", created.GetName(), "selector", selector, "duration", duration)

	return created, nil
}

// parseSelector converts a "key=value,key2=value2" selector into match
// labels. An empty or malformed selector is INVALID_INPUT.
func parseSelector(selector string) (map[string]any, error) {
	invalid := func(detail string) error {
		return &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: fmt.Sprintf("invalid selector %q", selector),
			Detail:  detail,
		}
	}

	if strings.TrimSpace(selector) == "" {
		return nil, invalid("selector must not be empty")
	}

	matchLabels := map[string]any{}
	for _, pair := range strings.Split(selector, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			return nil, invalid(fmt.Sprintf("expected key=value, got %q", pair))
		}
		matchLabels[k] = v
	}
	return matchLabels, nil
}
