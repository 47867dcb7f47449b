package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Sternrassler/narou-export/internal/config"
	"github.com/Sternrassler/narou-export/internal/testutil"
	"github.com/Sternrassler/narou-export/pkg/logging"
)

func loadTestConfig(t *testing.T, mock *testutil.MockAPI, extra ...string) *config.Config {
	t.Helper()

	output := filepath.Join(t.TempDir(), "novel_data.csv")
	args := append([]string{"--endpoint", mock.URL(), "--output", output, "--timeout", "5s"}, extra...)

	cfg, err := config.Load(args)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestRun_WritesCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	logging.Setup(logging.Config{Level: logging.LevelInfo, Output: buf, RunID: "test-run"})
	t.Cleanup(func() { logging.Setup(logging.DefaultConfig()) })

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetPage(1, testutil.NewPageResponse([]testutil.Novel{
		{NCode: "N0001", Title: "T1", Length: 30000, GlobalPoint: 150000, Keyword: "k1"},
	}))

	cfg := loadTestConfig(t, mock)
	if err := run(context.Background(), cfg, "test-run"); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "\xEF\xBB\xBFtitle,keywords,popularity-score,length,read-time,URL\r\n" +
		"T1,k1,150000,30000,60,https://ncode.syosetu.com/n0001/\r\n"
	if string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}

	logs := buf.String()
	if !strings.Contains(logs, "Data written to "+cfg.Output) {
		t.Errorf("expected completion message in logs, got %q", logs)
	}
	if !strings.Contains(logs, `"run_id":"test-run"`) {
		t.Errorf("expected run_id in logs, got %q", logs)
	}
}

func TestRun_PushesMetrics(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	var (
		mu    sync.Mutex
		paths []string
		body  string
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	cfg := loadTestConfig(t, mock, "--pushgateway-url", gateway.URL)
	if err := run(context.Background(), cfg, "run-42"); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "/metrics/job/narou_export/run_id/run-42" {
		t.Errorf("push paths = %v", paths)
	}
	if !strings.Contains(body, "narou_pages_total") {
		t.Error("pushed metrics should include narou_pages_total")
	}
}

func TestRun_RedisUnavailableFallsBack(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	// Nothing listens on port 1.
	cfg := loadTestConfig(t, mock, "--redis-addr", "127.0.0.1:1")
	if err := run(context.Background(), cfg, "run-nocache"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if mock.GetRequestCount() != 4 {
		t.Errorf("RequestCount = %d, want 4", mock.GetRequestCount())
	}
}

func TestRun_UnwritableOutputFails(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	cfg := loadTestConfig(t, mock)
	cfg.Output = filepath.Join(t.TempDir(), "missing", "novel_data.csv")

	if err := run(context.Background(), cfg, "run-fail"); err == nil {
		t.Fatal("run() should fail when the output cannot be created")
	}
}
