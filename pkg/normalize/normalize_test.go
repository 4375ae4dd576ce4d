package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type namedThing struct {
	Identifier string
	State      string
}

type stringerThing struct{}

func (stringerThing) String() string { return "dut-42" }

type deviceTag struct{ tag string }

func (d *deviceTag) String() string { return d.tag }

type taggedExporter struct {
	Name *deviceTag
}

func TestResolveFieldDefault(t *testing.T) {
	tests := []struct {
		name string
		obj  any
	}{
		{"nil object", nil},
		{"empty map", map[string]any{}},
		{"unrelated keys", map[string]any{"foo": 1, "bar": 2}},
		{"non-struct scalar", 42},
		{"struct without candidates", struct{ Other string }{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveField(tt.obj, []string{"name", "id"}, "unknown")
			assert.Equal(t, "unknown", got)
		})
	}
}

func TestResolveFieldPriorityOrder(t *testing.T) {
	obj := map[string]any{
		"id":   "secondary",
		"name": "primary",
	}
	// Candidate order wins, not the object's own declaration order.
	assert.Equal(t, "primary", ResolveField(obj, []string{"name", "id"}, nil))
	assert.Equal(t, "secondary", ResolveField(obj, []string{"id", "name"}, nil))
}

func TestResolveFieldDeterministic(t *testing.T) {
	obj := map[string]any{"status": "ready", "state": "leased"}
	first := ResolveField(obj, []string{"status", "state"}, nil)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ResolveField(obj, []string{"status", "state"}, nil))
	}
}

func TestResolveFieldStructProbing(t *testing.T) {
	obj := &namedThing{Identifier: "board-1", State: "online"}
	assert.Equal(t, "board-1", ResolveField(obj, []string{"name", "identifier"}, "unknown"))
	assert.Equal(t, "online", ResolveField(obj, []string{"status", "state"}, "unknown"))

	var nilThing *namedThing
	assert.Equal(t, "unknown", ResolveField(nilThing, []string{"identifier"}, "unknown"))
}

func TestResolveFieldUnstructuredSections(t *testing.T) {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "jumpstarter.dev/v1alpha1",
		"kind":       "Exporter",
		"metadata": map[string]any{
			"name":   "evm-board",
			"labels": map[string]any{"board-type": "j784s4evm"},
		},
		"status": map[string]any{
			"online": true,
		},
	}}
	assert.Equal(t, "evm-board", ResolveField(obj, []string{"name", "id"}, "unknown"))
	assert.Equal(t, true, ResolveField(obj, []string{"online", "available"}, false))
}

func TestResolveNested(t *testing.T) {
	t.Run("nested accessor", func(t *testing.T) {
		cfg := map[string]any{
			"client": map[string]any{"endpoint": "grpc.jumpstarter.example:8082"},
		}
		got := ResolveNested(cfg, []string{"client", "endpoint", "server"}, []string{"endpoint"}, "unknown")
		assert.Equal(t, "grpc.jumpstarter.example:8082", got)
	})

	t.Run("plain string short-circuits", func(t *testing.T) {
		cfg := map[string]any{"endpoint": "direct:1234"}
		got := ResolveNested(cfg, []string{"client", "endpoint"}, []string{"endpoint"}, "unknown")
		assert.Equal(t, "direct:1234", got)
	})

	t.Run("nothing resolvable", func(t *testing.T) {
		got := ResolveNested(map[string]any{}, []string{"client"}, []string{"endpoint"}, "unknown")
		assert.Equal(t, "unknown", got)
	})

	t.Run("dead-end candidate does not stop resolution", func(t *testing.T) {
		cfg := map[string]any{
			"client":   map[string]any{"proxy": "ignored"}, // no endpoint here
			"endpoint": "fallback:8082",
		}
		got := ResolveNested(cfg, []string{"client", "endpoint", "server"}, []string{"endpoint"}, "unknown")
		assert.Equal(t, "fallback:8082", got)
	})
}

func TestCollectionUnwrap(t *testing.T) {
	t.Run("exporters attribute preserved in order", func(t *testing.T) {
		container := map[string]any{
			"exporters": []any{"a", "b", "c"},
		}
		got := CollectionUnwrap(container, "exporters", "items")
		assert.Equal(t, []any{"a", "b", "c"}, got)
	})

	t.Run("falls through to items", func(t *testing.T) {
		container := map[string]any{"items": []any{1, 2}}
		got := CollectionUnwrap(container, "exporters", "items")
		assert.Equal(t, []any{1, 2}, got)
	})

	t.Run("unstructured list", func(t *testing.T) {
		list := &unstructured.UnstructuredList{Items: []unstructured.Unstructured{
			{Object: map[string]any{"metadata": map[string]any{"name": "one"}}},
			{Object: map[string]any{"metadata": map[string]any{"name": "two"}}},
		}}
		got := CollectionUnwrap(list, "exporters", "items")
		require.Len(t, got, 2)
		assert.Equal(t, "one", NormalizeExporter(got[0]).Name)
		assert.Equal(t, "two", NormalizeExporter(got[1]).Name)
	})

	t.Run("direct iteration", func(t *testing.T) {
		got := CollectionUnwrap([]string{"x", "y"}, "leases", "items")
		assert.Equal(t, []any{"x", "y"}, got)
	})

	t.Run("unrecognized shape yields empty", func(t *testing.T) {
		assert.Empty(t, CollectionUnwrap(42, "exporters", "items"))
		assert.Empty(t, CollectionUnwrap(nil, "exporters", "items"))
		assert.Empty(t, CollectionUnwrap(map[string]any{"other": "x"}, "exporters", "items"))
	})
}

func TestNormalizeExporter(t *testing.T) {
	t.Run("full object", func(t *testing.T) {
		rec := NormalizeExporter(map[string]any{
			"name":   "evm-1",
			"labels": map[string]any{"board-type": "j784s4evm"},
			"status": "ready",
			"online": true,
		})
		assert.Equal(t, ExporterRecord{
			Name:   "evm-1",
			Labels: map[string]string{"board-type": "j784s4evm"},
			Status: "ready",
			Online: true,
		}, rec)
	})

	t.Run("empty object takes documented defaults", func(t *testing.T) {
		rec := NormalizeExporter(map[string]any{})
		assert.Equal(t, ExporterRecord{
			Name:   "unknown",
			Labels: map[string]string{},
			Status: "unknown",
			Online: false,
		}, rec)
	})

	t.Run("string representation fallback for name", func(t *testing.T) {
		rec := NormalizeExporter(stringerThing{})
		assert.Equal(t, "dut-42", rec.Name)
	})

	t.Run("typed-nil stringer field never panics", func(t *testing.T) {
		rec := NormalizeExporter(taggedExporter{Name: (*deviceTag)(nil)})
		assert.Equal(t, "unknown", rec.Name)
	})

	t.Run("typed-nil stringer object never panics", func(t *testing.T) {
		rec := NormalizeExporter((*deviceTag)(nil))
		assert.Equal(t, "unknown", rec.Name)
	})

	t.Run("non-mapping labels degrade to empty", func(t *testing.T) {
		rec := NormalizeExporter(map[string]any{
			"name":   "x",
			"labels": "not-a-map",
		})
		assert.Equal(t, map[string]string{}, rec.Labels)
	})

	t.Run("mixed-value labels degrade to empty", func(t *testing.T) {
		rec := NormalizeExporter(map[string]any{
			"labels": map[string]any{"ok": "yes", "bad": 7},
		})
		assert.Equal(t, map[string]string{}, rec.Labels)
	})

	t.Run("non-bool online degrades to false", func(t *testing.T) {
		rec := NormalizeExporter(map[string]any{"online": "yes"})
		assert.False(t, rec.Online)
	})
}

func TestNormalizeLease(t *testing.T) {
	t.Run("historical attribute names", func(t *testing.T) {
		rec := NormalizeLease(map[string]any{
			"lease_id": "L123",
			"title":    "smoke-test",
			"state":    "active",
			"end_time": "2026-09-01T00:00:00Z",
		})
		assert.Equal(t, LeaseRecord{
			ID:        "L123",
			Name:      "smoke-test",
			Status:    "active",
			ExpiresAt: "2026-09-01T00:00:00Z",
		}, rec)
	})

	t.Run("absent or empty expiry reads unknown", func(t *testing.T) {
		assert.Equal(t, "unknown", NormalizeLease(map[string]any{"id": "L1"}).ExpiresAt)
		assert.Equal(t, "unknown", NormalizeLease(map[string]any{"id": "L1", "expires_at": ""}).ExpiresAt)
	})

	t.Run("custom resource status section does not shadow status.state", func(t *testing.T) {
		obj := &unstructured.Unstructured{Object: map[string]any{
			"apiVersion": "jumpstarter.dev/v1alpha1",
			"kind":       "Lease",
			"metadata": map[string]any{
				"name": "lease-1",
				"uid":  "b2c3",
			},
			"status": map[string]any{
				"state":   "active",
				"endTime": "2026-09-01T00:00:00Z",
			},
		}}
		rec := NormalizeLease(obj)
		assert.Equal(t, "b2c3", rec.ID)
		assert.Equal(t, "lease-1", rec.Name)
		assert.Equal(t, "active", rec.Status)
		assert.Equal(t, "2026-09-01T00:00:00Z", rec.ExpiresAt)
	})

	t.Run("composite status in a plain map is skipped", func(t *testing.T) {
		rec := NormalizeLease(map[string]any{
			"id":     "L7",
			"status": map[string]any{"nested": true},
			"state":  "ended",
		})
		assert.Equal(t, "ended", rec.Status)
	})

	t.Run("idempotent", func(t *testing.T) {
		src := map[string]any{
			"id":         "L9",
			"name":       "n",
			"status":     "active",
			"expires_at": "soon",
		}
		once := NormalizeLease(src)
		twice := NormalizeLease(once)
		assert.Equal(t, once, twice)
	})
}

func TestNormalizeLeaseCreation(t *testing.T) {
	t.Run("echoes request and projects response", func(t *testing.T) {
		resp := map[string]any{
			"id":            "L55",
			"status":        "pending",
			"created_at":    "2026-08-27T10:00:00Z",
			"expires_at":    "2026-08-27T10:30:00Z",
			"state":         "waiting",
			"exporter_name": "evm-1",
		}
		rec := NormalizeLeaseCreation(resp, "board-type=j784s4evm", "", 30)
		assert.Equal(t, "L55", rec.LeaseID)
		assert.Equal(t, "board-type=j784s4evm", rec.Selector)
		assert.Equal(t, "unknown", rec.LeaseName)
		assert.Equal(t, 30, rec.DurationMinutes)
		assert.Equal(t, "pending", rec.Status)
		assert.Equal(t, "waiting", rec.State)
		assert.Equal(t, "evm-1", rec.ExporterName)
	})

	t.Run("caller-supplied name wins", func(t *testing.T) {
		rec := NormalizeLeaseCreation(map[string]any{"name": "server-side"}, "a=b", "my-lease", 10)
		assert.Equal(t, "my-lease", rec.LeaseName)
	})

	t.Run("bare response defaults", func(t *testing.T) {
		rec := NormalizeLeaseCreation(map[string]any{}, "a=b", "", 5)
		assert.Equal(t, "unknown", rec.LeaseID)
		assert.Equal(t, "unknown", rec.Status)
		assert.Equal(t, "unknown", rec.CreatedAt)
		assert.Equal(t, "unknown", rec.ExpiresAt)
		assert.Empty(t, rec.State)
		assert.Empty(t, rec.ExporterName)
	})
}
