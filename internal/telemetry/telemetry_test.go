package telemetry

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// mockStore implements SettingsStore for testing.
type mockStore struct {
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) GetSetting(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("not found")
	}
	return v, nil
}

func (m *mockStore) SetSetting(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func TestResolveInstanceID_GeneratesAndPersists(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()

	id := resolveInstanceID(ctx, store)
	if id == "" {
		t.Fatal("expected non-empty instance ID")
	}

	// Should be persisted
	stored, err := store.GetSetting(ctx, "instance_id")
	if err != nil {
		t.Fatalf("expected instance_id in store: %v", err)
	}
	if stored != id {
		t.Errorf("stored ID %q != returned ID %q", stored, id)
	}

	// Second call should return same ID
	id2 := resolveInstanceID(ctx, store)
	if id2 != id {
		t.Errorf("expected same ID on second call, got %q vs %q", id2, id)
	}
}

func TestResolveInstanceID_NilStore(t *testing.T) {
	id := resolveInstanceID(context.Background(), nil)
	if id == "" {
		t.Fatal("expected non-empty instance ID even with nil store")
	}
}

func TestEnabled_ByDefault(t *testing.T) {
	t.Setenv("SHOWCASE_TELEMETRY", "")
	if !Enabled(context.Background(), newMockStore()) {
		t.Fatal("expected tracing to be allowed by default")
	}
}

func TestEnabled_DisabledViaSetting(t *testing.T) {
	t.Setenv("SHOWCASE_TELEMETRY", "")
	store := newMockStore()
	store.data["telemetry.enabled"] = "false"

	if Enabled(context.Background(), store) {
		t.Fatal("expected tracing disabled via setting")
	}
}

func TestEnabled_DisabledViaEnvCaseInsensitive(t *testing.T) {
	for _, val := range []string{"0", "False", "FALSE", "Off", "NO", "no"} {
		t.Run(val, func(t *testing.T) {
			t.Setenv("SHOWCASE_TELEMETRY", val)
			if Enabled(context.Background(), nil) {
				t.Fatalf("expected tracing disabled when SHOWCASE_TELEMETRY=%s", val)
			}
		})
	}
}

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	store := newMockStore()

	shutdown, err := Setup(context.Background(), store, Options{ServiceName: "showcase"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown func must never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown: %v", err)
	}
	if _, ok := store.data["instance_id"]; ok {
		t.Error("disabled setup should not touch the settings store")
	}
}

func TestSetup_DisabledViaEnvIgnoresEndpoint(t *testing.T) {
	t.Setenv("SHOWCASE_TELEMETRY", "off")

	shutdown, err := Setup(context.Background(), nil, Options{Endpoint: "localhost:4317"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown: %v", err)
	}
}

func TestAttributes(t *testing.T) {
	store := newMockStore()
	store.data["instance_id"] = "fixed-id"

	attrs := Attributes(context.Background(), store, Options{Version: "1.2.3"})
	got := map[attribute.Key]string{}
	for _, kv := range attrs {
		got[kv.Key] = kv.Value.AsString()
	}

	want := map[attribute.Key]string{
		semconv.ServiceNameKey:       "showcase",
		semconv.ServiceInstanceIDKey: "fixed-id",
		semconv.ServiceVersionKey:    "1.2.3",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestStripScheme(t *testing.T) {
	tests := map[string]string{
		"localhost:4317":          "localhost:4317",
		"http://collector:4317":   "collector:4317",
		"https://collector:4317/": "collector:4317",
	}
	for in, want := range tests {
		if got := stripScheme(in); got != want {
			t.Errorf("stripScheme(%q) = %q, want %q", in, got, want)
		}
	}
}
