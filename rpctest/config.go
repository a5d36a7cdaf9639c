package rpctest

import (
	"encoding/json"
	"io/ioutil"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Defaults used by the example configurations.
const (
	ExampleRemoteRPCURL = "https://us.rpc.fluxbeam.xyz"
	ExampleTargetRPCURL = "https://api.mainnet-beta.solana.com"
	ExampleProgram      = "2wT8Yq49kHgDzXuPxZSaeLaH1qbmGXtEyPy64bL7aD3c"
	ExampleAPIKey       = "YOUR_API_KEY_HERE"
)

// ExampleTestConfig returns a config with method-specific settings for every
// known method, getProgramAccounts disabled.
func ExampleTestConfig() *TestConfig {
	return &TestConfig{
		RemoteRPCURL: ExampleRemoteRPCURL,
		RPCAPIKey:    ExampleAPIKey,
		Programs:     []string{ExampleProgram},
		TargetRPCURL: ExampleTargetRPCURL,
		GlobalConfig: GlobalConfig{Concurrency: 5, Duration: 15, Limit: 0},
		Methods: map[string]MethodConfig{
			MethodGetAccountInfo:      {Concurrency: 10, Duration: 20, Limit: 50, Enabled: true},
			MethodGetMultipleAccounts: {Concurrency: 5, Duration: 15, Limit: 100, Enabled: true},
			MethodGetProgramAccounts:  {Concurrency: 3, Duration: 10, Limit: 25, Enabled: false},
		},
	}
}

// SimpleTestConfig returns a config where every method runs with the global defaults.
func SimpleTestConfig() *TestConfig {
	return &TestConfig{
		TargetRPCURL: ExampleTargetRPCURL,
		GlobalConfig: GlobalConfig{Concurrency: 3, Duration: 10},
	}
}

// ParseTestConfig decodes a JSON TestConfig. Unknown fields are ignored.
func ParseTestConfig(text []byte) (*TestConfig, error) {
	config := &TestConfig{}
	if err := json.Unmarshal(text, config); err != nil {
		return nil, errors.Wrap(err, "couldn't parse test config")
	}
	return config, nil
}

// LoadTestConfig reads and decodes a JSON TestConfig file.
func LoadTestConfig(path string) (*TestConfig, error) {
	text, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading test config %s", path)
	}
	return ParseTestConfig(text)
}

// ResolvedMethod is the effective configuration of one method of a test.
type ResolvedMethod struct {
	Name string
	MethodConfig
	Overridden bool // true if the config names this method in Methods
}

// Resolve returns the effective configuration of every known method plus any
// other method named in Methods, sorted by name. A method named in Methods
// keeps its Enabled flag and each of its zero numeric fields falls back to
// GlobalConfig. Methods not named are enabled with GlobalConfig.
func (c *TestConfig) Resolve() []ResolvedMethod {
	names := map[string]bool{}
	for _, name := range KnownMethods {
		names[name] = true
	}
	for name := range c.Methods {
		names[name] = true
	}

	resolved := make([]ResolvedMethod, 0, len(names))
	for name := range names {
		r := ResolvedMethod{Name: name}
		override, ok := c.Methods[name]
		r.Overridden = ok
		r.Enabled = !ok || override.Enabled
		r.Concurrency = pick(override.Concurrency, c.GlobalConfig.Concurrency)
		r.Duration = pick(override.Duration, c.GlobalConfig.Duration)
		r.Limit = pick(override.Limit, c.GlobalConfig.Limit)
		resolved = append(resolved, r)
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Name < resolved[j].Name })
	return resolved
}

func pick(override, global int) int {
	if override != 0 {
		return override
	}
	return global
}

// EnabledMethods returns the names of the methods that will run, sorted.
func (c *TestConfig) EnabledMethods() []string {
	var names []string
	for _, r := range c.Resolve() {
		if r.Enabled {
			names = append(names, r.Name)
		}
	}
	return names
}

// Validate checks what the server can't run: a missing or malformed target,
// negative numbers, or nothing enabled.
func (c *TestConfig) Validate() error {
	if c.TargetRPCURL == "" {
		return errors.New("target_rpc_url is required")
	}
	if err := validateURL("target_rpc_url", c.TargetRPCURL); err != nil {
		return err
	}
	if c.RemoteRPCURL != "" {
		if err := validateURL("remote_rpc_url", c.RemoteRPCURL); err != nil {
			return err
		}
	}
	g := c.GlobalConfig
	if err := validateNumbers("global_config", g.Concurrency, g.Duration, g.Limit); err != nil {
		return err
	}
	for name, m := range c.Methods {
		if strings.TrimSpace(name) == "" {
			return errors.New("methods: empty method name")
		}
		if err := validateNumbers("methods."+name, m.Concurrency, m.Duration, m.Limit); err != nil {
			return err
		}
	}
	if len(c.EnabledMethods()) == 0 {
		return errors.New("no method is enabled")
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "%s is not a valid URL", field)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("%s must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}

func validateNumbers(field string, concurrency, duration, limit int) error {
	switch {
	case concurrency < 0:
		return errors.Errorf("%s.concurrency must be >= 0, got %d", field, concurrency)
	case duration < 0:
		return errors.Errorf("%s.duration must be >= 0, got %d", field, duration)
	case limit < 0:
		return errors.Errorf("%s.limit must be >= 0, got %d", field, limit)
	}
	return nil
}

// ParseMethodFlag parses "name=concurrency,duration,limit[,disabled]" into a
// method name and its MethodConfig. Empty numbers are left zero, i.e. global.
func ParseMethodFlag(s string) (string, MethodConfig, error) {
	parts := strings.SplitN(s, "=", 2)
	name := strings.TrimSpace(parts[0])
	if name == "" || len(parts) != 2 {
		return "", MethodConfig{}, errors.Errorf("method must be name=concurrency,duration,limit[,disabled], got %q", s)
	}

	m := MethodConfig{Enabled: true}
	fields := strings.Split(parts[1], ",")
	if len(fields) > 4 {
		return "", MethodConfig{}, errors.Errorf("method %s: too many fields in %q", name, parts[1])
	}
	targets := []*int{&m.Concurrency, &m.Duration, &m.Limit}
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if i == 3 {
			if f != "disabled" {
				return "", MethodConfig{}, errors.Errorf("method %s: expected 'disabled', got %q", name, f)
			}
			m.Enabled = false
			continue
		}
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return "", MethodConfig{}, errors.Errorf("method %s: %q is not a number", name, f)
		}
		*targets[i] = n
	}
	return name, m, nil
}
