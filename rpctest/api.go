package rpctest

// api.go holds the wire types exchanged with the RPC Test Server.

import (
	"encoding/json"
	"time"
)

// Names of the RPC methods the test server knows how to exercise.
const (
	MethodGetAccountInfo      = "getAccountInfo"
	MethodGetMultipleAccounts = "getMultipleAccounts"
	MethodGetProgramAccounts  = "getProgramAccounts"
)

// KnownMethods lists the methods run by the server when a config doesn't name them.
var KnownMethods = []string{MethodGetAccountInfo, MethodGetMultipleAccounts, MethodGetProgramAccounts}

// Status values reported by GET /test/{id}. Any other value means the test is still in progress.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRunning   = "running"
	StatusUnknown   = "unknown"
)

// GlobalConfig is the default load shape for every method of a test.
// Duration is in seconds; a zero Limit means unlimited.
type GlobalConfig struct {
	Concurrency int `json:"concurrency"`
	Duration    int `json:"duration"`
	Limit       int `json:"limit"`
}

// MethodConfig overrides GlobalConfig for a single method.
type MethodConfig struct {
	Concurrency int  `json:"concurrency"`
	Duration    int  `json:"duration"`
	Limit       int  `json:"limit"`
	Enabled     bool `json:"enabled"`
}

// TestConfig is the body of POST /test.
type TestConfig struct {
	RemoteRPCURL string                  `json:"remote_rpc_url,omitempty"`
	RPCAPIKey    string                  `json:"rpc_apikey,omitempty"`
	Programs     []string                `json:"programs,omitempty"`
	TargetRPCURL string                  `json:"target_rpc_url"`
	GlobalConfig GlobalConfig            `json:"global_config"`
	Methods      map[string]MethodConfig `json:"methods,omitempty"`
}

// TestHandle references a test created on the server.
type TestHandle struct {
	TestID string `json:"test_id"`
}

func (h TestHandle) String() string {
	return h.TestID
}

// MethodResult is the outcome of load testing a single method.
type MethodResult struct {
	MethodName       string  `json:"method_name"`
	DurationMicros   int64   `json:"duration_micros"`
	TotalRequests    int64   `json:"total_requests"`
	SuccessCount     int64   `json:"success_count"`
	FailureCount     int64   `json:"failure_count"`
	RequestsPerSec   float64 `json:"requests_per_sec"`
	SuccessRate      float64 `json:"success_rate"`
	MinLatencyMicros int64   `json:"min_latency_micros"`
	MaxLatencyMicros int64   `json:"max_latency_micros"`
	AvgLatencyMicros int64   `json:"avg_latency_micros"`
}

// OverallResult aggregates the MethodResults of a test.
type OverallResult struct {
	TotalDuration      time.Duration `json:"total_duration"`
	TotalRequests      int64         `json:"total_requests"`
	TotalSuccess       int64         `json:"total_success"`
	TotalFailure       int64         `json:"total_failure"`
	OverallRPS         float64       `json:"overall_rps"`
	OverallSuccessRate float64       `json:"overall_success_rate"`
}

// TestResult is the body of GET /test/{id}.
// Raw keeps the body as it was received so callers can print fields this type doesn't model.
type TestResult struct {
	Status    string         `json:"status"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	TestID    string         `json:"test_id"`
	Overall   *OverallResult `json:"overall,omitempty"`
	Results   []MethodResult `json:"results,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration"`

	Raw json.RawMessage `json:"-"`
}

// TestInfo is one entry of the GET /tests collection.
type TestInfo struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Config    json.RawMessage `json:"config,omitempty"`
	Duration  time.Duration   `json:"duration,omitempty"`
}

// ServerInfo is the document served at GET /.
type ServerInfo struct {
	Service          string            `json:"service"`
	Version          string            `json:"version"`
	Message          string            `json:"message"`
	Endpoints        map[string]string `json:"endpoints"`
	AvailableMethods []string          `json:"available_methods"`
}

// IsTerminal returns true if no further status change is expected.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
