package tracer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/protobuf/proto"
)

const testAPIKey = "test-api-key"

// mockCollector is an OTLP/HTTP trace receiver that records what it is sent.
type mockCollector struct {
	srv *httptest.Server

	mu        sync.Mutex
	requests  int
	apiKeys   []string
	spans     []*tracepb.Span
	resources []map[string]string
}

func newMockCollector(t *testing.T) *mockCollector {
	t.Helper()
	c := &mockCollector{}
	c.srv = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *mockCollector) endpoint() string {
	return c.srv.URL + "/v1/traces"
}

func (c *mockCollector) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req coltracepb.ExportTraceServiceRequest
	if err := proto.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	c.requests++
	c.apiKeys = append(c.apiKeys, r.Header.Get(HeaderAPIKey))
	for _, rs := range req.GetResourceSpans() {
		attrs := make(map[string]string)
		for _, kv := range rs.GetResource().GetAttributes() {
			attrs[kv.GetKey()] = kv.GetValue().GetStringValue()
		}
		c.resources = append(c.resources, attrs)
		for _, ss := range rs.GetScopeSpans() {
			c.spans = append(c.spans, ss.GetSpans()...)
		}
	}
	c.mu.Unlock()

	resp, _ := proto.Marshal(&coltracepb.ExportTraceServiceResponse{})
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func (c *mockCollector) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

func (c *mockCollector) spanCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spans)
}

func (c *mockCollector) receivedSpans() []*tracepb.Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tracepb.Span(nil), c.spans...)
}

func (c *mockCollector) receivedAPIKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.apiKeys...)
}

func (c *mockCollector) lastResource() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.resources) == 0 {
		return nil
	}
	return c.resources[len(c.resources)-1]
}

// spanAttr returns the string value of key on span, or "".
func spanAttr(span *tracepb.Span, key string) string {
	for _, kv := range span.GetAttributes() {
		if kv.GetKey() == key {
			return kv.GetValue().GetStringValue()
		}
	}
	return ""
}

// testConfig returns a valid config exporting to endpoint.
func testConfig(endpoint string) Config {
	cfg := DefaultConfig()
	cfg.ServiceName = "tracer-test"
	cfg.APIKey = testAPIKey
	cfg.EndpointURL = endpoint
	cfg.ShutdownTimeout = 5 * time.Second
	return cfg
}
