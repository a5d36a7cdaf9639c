// Package fake provides in-memory stand-ins for the RPC Test Server and for
// the clock of the polling loop, for use in tests.
package fake

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	uuid "github.com/nu7hatch/gouuid"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/rpctest/rpctest"
)

// Request is a request received by the Server.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

type failure struct {
	code int
	body string
}

type test struct {
	id     string
	config rpctest.TestConfig
	polls  int
	start  time.Time
}

// Server implements the RPC Test Server API over an in-memory table of tests.
// Tests don't run anything: each GET /test/{id} moves the test one step
// through the status script, and the last status of the script sticks.
type Server struct {
	mu        sync.Mutex
	tests     map[string]*test
	order     []string
	script    []string
	nextID    string
	omitID    bool
	wrapList  bool
	failures  map[string]failure
	requests  []Request
	startTime time.Time
}

// NewServer returns a Server whose tests report "running" once, then "completed".
func NewServer() *Server {
	return &Server{
		tests:     map[string]*test{},
		script:    []string{rpctest.StatusRunning, rpctest.StatusCompleted},
		failures:  map[string]failure{},
		startTime: time.Unix(1700000000, 0).UTC(),
	}
}

// SetStatusScript sets the statuses successive polls of a test observe.
func (s *Server) SetStatusScript(statuses ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append([]string(nil), statuses...)
}

// SetNextTestID makes the next created test use id instead of a generated one.
func (s *Server) SetNextTestID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = id
}

// OmitNextTestID makes the next creation answer 200 without a test_id.
func (s *Server) OmitNextTestID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitID = true
}

// SetWrappedList makes GET /tests answer {"tests": [...], "count": n} instead of a bare array.
func (s *Server) SetWrappedList(wrapped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrapList = wrapped
}

// FailWith makes requests matching method and route answer code with body.
// Routes are "/", "/tests", "/test" and "/test/{id}".
func (s *Server) FailWith(method, route string, code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+route] = failure{code, body}
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// TestIDs returns the ids of the tests currently known, in creation order.
func (s *Server) TestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})

	route, id := splitRoute(r.URL.Path)
	if f, ok := s.failures[r.Method+" "+route]; ok {
		w.WriteHeader(f.code)
		fmt.Fprint(w, f.body)
		return
	}

	switch {
	case route == "/" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"service":           "RPC Test Server",
			"version":           "1.0.0",
			"available_methods": rpctest.KnownMethods,
			"endpoints": map[string]string{
				"POST /test":        "Start a new test",
				"GET /test/{id}":    "Get test results",
				"GET /tests":        "List all tests",
				"DELETE /test/{id}": "Delete a test",
			},
		})
	case route == "/tests" && r.Method == http.MethodGet:
		s.listTests(w)
	case route == "/test" && r.Method == http.MethodPost:
		s.createTest(w, body)
	case route == "/test/{id}" && r.Method == http.MethodGet:
		s.getTest(w, id)
	case route == "/test/{id}" && r.Method == http.MethodDelete:
		s.deleteTest(w, id)
	case route == "":
		http.NotFound(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func splitRoute(path string) (route, id string) {
	switch {
	case path == "/" || path == "/tests" || path == "/test":
		return path, ""
	case strings.HasPrefix(path, "/test/") && len(path) > len("/test/"):
		return "/test/{id}", strings.TrimPrefix(path, "/test/")
	}
	return "", ""
}

func (s *Server) createTest(w http.ResponseWriter, body []byte) {
	config := rpctest.TestConfig{}
	if err := json.Unmarshal(body, &config); err != nil {
		http.Error(w, "invalid test config: "+err.Error(), http.StatusBadRequest)
		return
	}
	if config.TargetRPCURL == "" {
		http.Error(w, "target_rpc_url is required", http.StatusBadRequest)
		return
	}

	if s.omitID {
		s.omitID = false
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		return
	}
	id := s.nextID
	s.nextID = ""
	if id == "" {
		u, err := uuid.NewV4()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		id = "test_" + u.String()
	}

	s.tests[id] = &test{id: id, config: config, start: s.startTime}
	s.order = append(s.order, id)
	log.Debugf("fake: created test %s", id)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test started",
		"test_id": id,
	})
}

func (s *Server) getTest(w http.ResponseWriter, id string) {
	t, ok := s.tests[id]
	if !ok {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	status := s.statusOf(t)
	t.polls++

	if status != rpctest.StatusCompleted {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":         t.id,
			"status":     status,
			"start_time": t.start,
			"config":     t.config,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, Results(t.id, &t.config))
}

func (s *Server) statusOf(t *test) string {
	if len(s.script) == 0 {
		return rpctest.StatusRunning
	}
	if t.polls < len(s.script) {
		return s.script[t.polls]
	}
	return s.script[len(s.script)-1]
}

func (s *Server) listTests(w http.ResponseWriter) {
	tests := make([]map[string]interface{}, 0, len(s.order))
	for _, id := range s.order {
		t := s.tests[id]
		tests = append(tests, map[string]interface{}{
			"id":         t.id,
			"status":     s.statusOf(t),
			"start_time": t.start,
			"config":     t.config,
		})
	}
	if s.wrapList {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"tests": tests, "count": len(tests)})
		return
	}
	s.writeJSON(w, http.StatusOK, tests)
}

func (s *Server) deleteTest(w http.ResponseWriter, id string) {
	if _, ok := s.tests[id]; !ok {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	delete(s.tests, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test deleted successfully",
		"test_id": id,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("fake: encoding response: %v", err)
	}
}

// Results builds the completed result the Server reports for config: every
// enabled method made concurrency*duration*10 requests, one in ten failing.
func Results(id string, config *rpctest.TestConfig) *rpctest.TestResult {
	result := &rpctest.TestResult{
		Status:  rpctest.StatusCompleted,
		Success: true,
		Message: "Test completed successfully",
		TestID:  id,
	}
	overall := &rpctest.OverallResult{}
	var totalSecs float64
	for _, m := range config.Resolve() {
		if !m.Enabled {
			continue
		}
		secs := m.Duration
		if secs == 0 {
			secs = 1
		}
		total := int64(m.Concurrency * secs * 10)
		failures := total / 10
		r := rpctest.MethodResult{
			MethodName:       m.Name,
			DurationMicros:   int64(secs) * 1e6,
			TotalRequests:    total,
			SuccessCount:     total - failures,
			FailureCount:     failures,
			RequestsPerSec:   float64(total) / float64(secs),
			MinLatencyMicros: 800,
			AvgLatencyMicros: 12500,
			MaxLatencyMicros: 1250000,
		}
		if total > 0 {
			r.SuccessRate = float64(r.SuccessCount) / float64(total) * 100
		}
		result.Results = append(result.Results, r)

		totalSecs += float64(secs)
		overall.TotalRequests += r.TotalRequests
		overall.TotalSuccess += r.SuccessCount
		overall.TotalFailure += r.FailureCount
	}
	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].MethodName < result.Results[j].MethodName
	})
	overall.TotalDuration = time.Duration(totalSecs * float64(time.Second))
	if totalSecs > 0 {
		overall.OverallRPS = float64(overall.TotalRequests) / totalSecs
	}
	if overall.TotalRequests > 0 {
		overall.OverallSuccessRate = float64(overall.TotalSuccess) / float64(overall.TotalRequests) * 100
	}
	result.Overall = overall
	result.Duration = overall.TotalDuration
	return result
}
