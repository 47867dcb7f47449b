// Package testutil provides testing utilities for the Narou export.
package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"
)

// MockResponse defines the behavior for one page of the mock API.
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock Narou novel API keyed by the st offset.
type MockAPI struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[int]MockResponse

	// Tracking
	RequestCount int
	Offsets      []int
	LastQuery    map[string]string
	LastHeader   http.Header
}

// NewMockAPI creates a new mock API server. Offsets without a configured
// response get a header-only YAML document.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		pages: make(map[int]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, _ := strconv.Atoi(r.URL.Query().Get("st"))

		mock.mu.Lock()
		mock.RequestCount++
		mock.Offsets = append(mock.Offsets, st)
		mock.LastHeader = r.Header.Clone()
		mock.LastQuery = make(map[string]string)
		for key := range r.URL.Query() {
			mock.LastQuery[key] = r.URL.Query().Get(key)
		}
		resp, exists := mock.pages[st]
		mock.mu.Unlock()

		if !exists {
			resp = NewPageResponse(nil)
		}

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if len(resp.Body) > 0 {
			w.Write(resp.Body)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL + "/novelapi/api/"
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetPage configures the response for an offset.
func (m *MockAPI) SetPage(offset int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[offset] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetOffsets returns the st values requested so far, in order.
func (m *MockAPI) GetOffsets() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.Offsets...)
}

// GetLastQuery returns the query parameters of the latest request.
func (m *MockAPI) GetLastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// GetLastHeader returns the headers of the latest request.
func (m *MockAPI) GetLastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastHeader
}

// Novel is a record as served by the mock API.
type Novel struct {
	NCode       string `yaml:"ncode"`
	Title       string `yaml:"title"`
	Length      int    `yaml:"length"`
	GlobalPoint int    `yaml:"global_point"`
	Keyword     string `yaml:"keyword"`
}

// PageYAML renders the API document for novels: a header entry followed by one entry per novel.
func PageYAML(novels []Novel) []byte {
	doc := []any{map[string]int{"allcount": len(novels)}}
	for _, n := range novels {
		doc = append(doc, n)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// Gzip compresses data the way the API does.
func Gzip(data []byte) []byte {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, 5)
	if err != nil {
		panic(err)
	}
	if _, err := zw.Write(data); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// NewPageResponse creates a 200 OK response with a gzip-compressed YAML page.
func NewPageResponse(novels []Novel) MockResponse {
	return NewRawResponse(Gzip(PageYAML(novels)))
}

// NewRawResponse creates a 200 OK response with an arbitrary body.
func NewRawResponse(body []byte) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/x-gzip",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       []byte("internal server error"),
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       []byte("bad request"),
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}
