package rpctest

//go:generate mockgen -source=client.go -package=rpctest -destination=client_mock.go

// client provides access to the RPC Test Server HTTP API. It is used by the
// command line binaries to start load tests and to collect their results.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/twitter/rpctest/common/stats"
)

const (
	DefaultBaseURL      = "http://localhost:8080"
	DefaultPollInterval = 5 * time.Second
	DefaultMaxWait      = 300 * time.Second

	// A single attempt; the API contract is that failed calls are reported, not retried.
	DefaultHTTPTries = 1
)

// HTTPClient is satisfied by *http.Client and *pester.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// MakePesterClient returns a pester client making at most tries attempts
// (0 and 1 both mean 1 try total), with exponential backoff between them.
func MakePesterClient(tries int) *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = tries
	client.LogHook = func(e pester.ErrEntry) {
		log.Debugf("HTTP attempt %d failed: %+v", e.Attempt, e)
	}
	return client
}

// Parameters to configure a Client. Zero values select the defaults.
type ClientConfig struct {
	BaseURL      string              // server base URL, DefaultBaseURL if empty
	HTTPClient   HTTPClient          // MakePesterClient(DefaultHTTPTries) if nil
	Stats        stats.StatsReceiver // NilStatsReceiver if nil
	PollInterval time.Duration       // DefaultPollInterval if zero
	Clock        Clock               // wall clock if nil
}

// Client makes requests to a single RPC Test Server. Calls are independent;
// the server holds all test state.
type Client struct {
	baseURL      string
	http         HTTPClient
	stat         stats.StatsReceiver
	pollInterval time.Duration
	clock        Clock
}

// NewClient creates a Client from config, filling in defaults.
func NewClient(config ClientConfig) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(config.BaseURL, "/"),
		http:         config.HTTPClient,
		stat:         config.Stats,
		pollInterval: config.PollInterval,
		clock:        config.Clock,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = MakePesterClient(DefaultHTTPTries)
	}
	if c.stat == nil {
		c.stat = stats.NilStatsReceiver()
	}
	c.stat = c.stat.Scope("rpctest")
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.clock == nil {
		c.clock = SystemClock()
	}
	return c
}

// BaseURL returns the server URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthCheck API. Succeeds iff GET / answers 200. The server description is
// returned when the body can be decoded, otherwise an empty ServerInfo.
func (c *Client) HealthCheck(ctx context.Context) (*ServerInfo, error) {
	body, err := c.do(ctx, "health_check", http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}

	info := &ServerInfo{}
	doc := gjson.ParseBytes(body)
	// Some server builds wrap the description in an {success, message, data} envelope.
	if data := doc.Get("data"); data.IsObject() {
		info.Message = doc.Get("message").String()
		doc = data
	}
	if doc.IsObject() {
		if err := json.Unmarshal([]byte(doc.Raw), info); err != nil {
			log.Debugf("Ignoring undecodable server info: %v", err)
		}
	}
	log.Infof("Server at %s is running %s %s", c.baseURL, info.Service, info.Version)
	return info, nil
}

// CreateTest API. Starts a test on the server and returns its handle.
func (c *Client) CreateTest(ctx context.Context, config *TestConfig) (TestHandle, error) {
	if config == nil {
		return TestHandle{}, errors.New("create test: nil config")
	}
	payload, err := json.Marshal(config)
	if err != nil {
		return TestHandle{}, errors.Wrap(err, "create test: encoding config")
	}

	body, err := c.do(ctx, "create_test", http.MethodPost, "/test", payload)
	if err != nil {
		return TestHandle{}, err
	}

	handle := TestHandle{}
	if err := json.Unmarshal(body, &handle); err != nil {
		return TestHandle{}, errors.Wrapf(err, "create test: decoding response %q", truncate(body))
	}
	if handle.TestID == "" {
		return TestHandle{}, errors.Errorf("create test: response has no test_id: %q", truncate(body))
	}
	log.Infof("Test started, id: %s", handle)
	return handle, nil
}

// GetStatus API. Returns the status string of the test, StatusUnknown if the
// server didn't report one.
func (c *Client) GetStatus(ctx context.Context, handle TestHandle) (string, error) {
	body, err := c.getTest(ctx, "get_status", handle)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", errors.Errorf("get status: invalid JSON response %q", truncate(body))
	}
	status := StatusUnknown
	if s := gjson.GetBytes(body, "status"); s.Exists() {
		status = s.String()
	}
	log.Infof("Test %s status: %s", handle, status)
	return status, nil
}

// GetResults API. Returns the result once the test is completed. While the
// test is in any other state the result is nil and so is the error.
//
// Only the status gates the result: the other fields are read tolerantly, a
// malformed one is left zero, and Raw always holds the body as received.
func (c *Client) GetResults(ctx context.Context, handle TestHandle) (*TestResult, error) {
	body, err := c.getTest(ctx, "get_results", handle)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.Errorf("get results: invalid JSON response %q", truncate(body))
	}

	doc := gjson.ParseBytes(body)
	if status := doc.Get("status").String(); status != StatusCompleted {
		log.Infof("Test %s is still running (status %q)", handle, status)
		return nil, nil
	}
	result := decodeResult(doc)
	result.Raw = json.RawMessage(body)
	return result, nil
}

func decodeResult(doc gjson.Result) *TestResult {
	result := &TestResult{
		Status:    doc.Get("status").String(),
		Success:   doc.Get("success").Bool(),
		Message:   doc.Get("message").String(),
		TestID:    doc.Get("test_id").String(),
		Timestamp: decodeTime(doc.Get("timestamp")),
		Duration:  decodeDuration(doc.Get("duration")),
	}
	if o := doc.Get("overall"); o.IsObject() {
		result.Overall = &OverallResult{
			TotalDuration:      decodeDuration(o.Get("total_duration")),
			TotalRequests:      o.Get("total_requests").Int(),
			TotalSuccess:       o.Get("total_success").Int(),
			TotalFailure:       o.Get("total_failure").Int(),
			OverallRPS:         o.Get("overall_rps").Float(),
			OverallSuccessRate: o.Get("overall_success_rate").Float(),
		}
	} else if o.Exists() {
		log.Debugf("Ignoring overall result that isn't an object: %s", o.Raw)
	}
	results := doc.Get("results")
	if results.Exists() && !results.IsArray() {
		log.Debugf("Ignoring method results that aren't an array: %s", results.Raw)
	}
	if !results.IsArray() {
		return result
	}
	for _, r := range results.Array() {
		if !r.IsObject() {
			log.Debugf("Ignoring method result that isn't an object: %s", r.Raw)
			continue
		}
		result.Results = append(result.Results, MethodResult{
			MethodName:       r.Get("method_name").String(),
			DurationMicros:   r.Get("duration_micros").Int(),
			TotalRequests:    r.Get("total_requests").Int(),
			SuccessCount:     r.Get("success_count").Int(),
			FailureCount:     r.Get("failure_count").Int(),
			RequestsPerSec:   r.Get("requests_per_sec").Float(),
			SuccessRate:      r.Get("success_rate").Float(),
			MinLatencyMicros: r.Get("min_latency_micros").Int(),
			MaxLatencyMicros: r.Get("max_latency_micros").Int(),
			AvgLatencyMicros: r.Get("avg_latency_micros").Int(),
		})
	}
	return result
}

// Durations are nanoseconds on the wire; strings like "12.5s" are accepted too.
func decodeDuration(v gjson.Result) time.Duration {
	switch v.Type {
	case gjson.Number:
		return time.Duration(v.Int())
	case gjson.String:
		if d, err := time.ParseDuration(v.String()); err == nil {
			return d
		}
	}
	if v.Exists() {
		log.Debugf("Ignoring undecodable duration: %s", v.Raw)
	}
	return 0
}

func decodeTime(v gjson.Result) time.Time {
	if v.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339Nano, v.String()); err == nil {
			return t
		}
	}
	if v.Exists() {
		log.Debugf("Ignoring undecodable timestamp: %s", v.Raw)
	}
	return time.Time{}
}

// ListTests API. Returns the raw JSON collection of tests known to the server.
// Servers answering with an object are unwrapped to its "tests" member.
func (c *Client) ListTests(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, "list_tests", http.MethodGet, "/tests", nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.Errorf("list tests: invalid JSON response %q", truncate(body))
	}

	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		return json.RawMessage(body), nil
	}
	if tests := doc.Get("tests"); tests.IsArray() {
		return json.RawMessage(tests.Raw), nil
	}
	log.Warnf("List tests response has no collection, returning it as is")
	return json.RawMessage(body), nil
}

// DecodeTestInfos decodes a collection returned by ListTests.
// A null collection decodes to an empty slice.
func DecodeTestInfos(raw json.RawMessage) ([]TestInfo, error) {
	infos := []TestInfo{}
	if len(raw) == 0 || gjson.ParseBytes(raw).Type == gjson.Null {
		return infos, nil
	}
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, errors.Wrap(err, "decoding test list")
	}
	return infos, nil
}

// DeleteTest API. Removes the test from the server; nil means the server answered 200.
func (c *Client) DeleteTest(ctx context.Context, handle TestHandle) error {
	if handle.TestID == "" {
		return ErrEmptyTestID
	}
	if _, err := c.do(ctx, "delete_test", http.MethodDelete, testPath(handle), nil); err != nil {
		return err
	}
	log.Infof("Test %s deleted", handle)
	return nil
}

func (c *Client) getTest(ctx context.Context, op string, handle TestHandle) ([]byte, error) {
	if handle.TestID == "" {
		return nil, ErrEmptyTestID
	}
	return c.do(ctx, op, http.MethodGet, testPath(handle), nil)
}

// do issues a single request and returns the body of a 200 response.
// Every other outcome is a *NetworkError or a *StatusError.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	uri := c.baseURL + path
	stat := c.stat.Scope(op)
	stat.Counter("requests").Inc(1)
	defer stat.Latency("latency_ms").Time().Stop()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, uri, reqBody)
	if err != nil {
		stat.Counter("failures").Inc(1)
		return nil, errors.Wrapf(err, "%s: building request", op)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debugf("%s %s", method, uri)
	resp, err := c.http.Do(req)
	if err != nil {
		stat.Counter("failures").Inc(1)
		log.Errorf("Network error: %s %s: %v", method, uri, err)
		return nil, &NetworkError{Op: op, URL: uri, Err: err}
	}
	defer resp.Body.Close()

	// A non-200 is reported with whatever body could be read, even if the read failed.
	body, readErr := ioutil.ReadAll(resp.Body)
	log.Debugf("%s %s -> %d %s", method, uri, resp.StatusCode, truncate(body))

	if resp.StatusCode != http.StatusOK {
		stat.Counter("failures").Inc(1)
		log.Errorf("%s failed: %s %s -> %d", op, method, uri, resp.StatusCode)
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if readErr != nil {
		stat.Counter("failures").Inc(1)
		log.Errorf("Network error reading response: %s %s: %v", method, uri, readErr)
		return nil, &NetworkError{Op: op, URL: uri, Err: readErr}
	}
	return body, nil
}

func testPath(handle TestHandle) string {
	return "/test/" + url.PathEscape(handle.TestID)
}

const maxLoggedBody = 512

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
