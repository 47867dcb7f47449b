package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPush(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "narou_test_pages_total",
		Help: "Test counter",
	})
	reg.MustRegister(counter)
	counter.Add(4)

	old := Gatherer
	Gatherer = reg
	t.Cleanup(func() { Gatherer = old })

	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := Push(context.Background(), PushConfig{URL: server.URL, RunID: "run-1"})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Errorf("method = %s, want PUT", method)
	}
	if path != "/metrics/job/narou_export/run_id/run-1" {
		t.Errorf("path = %s", path)
	}
	if !strings.Contains(body, "narou_test_pages_total") {
		t.Error("pushed body should contain the registered counter")
	}
}

func TestPush_Errors(t *testing.T) {
	if err := Push(context.Background(), PushConfig{}); err == nil {
		t.Error("Push() without URL should fail")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	old := Gatherer
	Gatherer = prometheus.NewRegistry()
	t.Cleanup(func() { Gatherer = old })

	if err := Push(context.Background(), PushConfig{URL: server.URL}); err == nil {
		t.Error("Push() should fail on a 500 from the gateway")
	}
}
