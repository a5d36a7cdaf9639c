package rpctest_test

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/rpctest/rpctest"
)

func TestExampleConfigResolve(t *testing.T) {
	resolved := rpctest.ExampleTestConfig().Resolve()
	require.Len(t, resolved, 3)

	assert.Equal(t, rpctest.ResolvedMethod{
		Name:         rpctest.MethodGetAccountInfo,
		MethodConfig: rpctest.MethodConfig{Concurrency: 10, Duration: 20, Limit: 50, Enabled: true},
		Overridden:   true,
	}, resolved[0])
	assert.Equal(t, rpctest.MethodGetMultipleAccounts, resolved[1].Name)
	assert.Equal(t, rpctest.MethodGetProgramAccounts, resolved[2].Name)
	assert.False(t, resolved[2].Enabled)

	assert.Equal(t, []string{rpctest.MethodGetAccountInfo, rpctest.MethodGetMultipleAccounts},
		rpctest.ExampleTestConfig().EnabledMethods())
}

func TestSimpleConfigResolve(t *testing.T) {
	for _, r := range rpctest.SimpleTestConfig().Resolve() {
		assert.Equal(t, rpctest.MethodConfig{Concurrency: 3, Duration: 10, Limit: 0, Enabled: true}, r.MethodConfig, r.Name)
		assert.False(t, r.Overridden)
	}
}

func TestPartialOverride(t *testing.T) {
	config := &rpctest.TestConfig{
		TargetRPCURL: "https://x",
		GlobalConfig: rpctest.GlobalConfig{Concurrency: 4, Duration: 30, Limit: 7},
		Methods: map[string]rpctest.MethodConfig{
			"getSlot": {Duration: 5, Enabled: true},
		},
	}
	resolved := config.Resolve()
	require.Len(t, resolved, 4)
	var slot rpctest.ResolvedMethod
	for _, r := range resolved {
		if r.Name == "getSlot" {
			slot = r
		}
	}
	assert.Equal(t, rpctest.MethodConfig{Concurrency: 4, Duration: 5, Limit: 7, Enabled: true}, slot.MethodConfig)
}

// Every method runs with its own non-zero settings and the global ones otherwise.
func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("overrides win when non-zero", prop.ForAll(
		func(global, override int, named, enabled bool) bool {
			config := &rpctest.TestConfig{
				GlobalConfig: rpctest.GlobalConfig{Concurrency: global, Duration: global, Limit: global},
			}
			if named {
				config.Methods = map[string]rpctest.MethodConfig{
					rpctest.MethodGetAccountInfo: {Concurrency: override, Duration: override, Limit: override, Enabled: enabled},
				}
			}

			want := global
			if named && override != 0 {
				want = override
			}
			for _, r := range config.Resolve() {
				if r.Name != rpctest.MethodGetAccountInfo {
					if r.Concurrency != global || !r.Enabled || r.Overridden {
						return false
					}
					continue
				}
				if r.Concurrency != want || r.Duration != want || r.Limit != want {
					return false
				}
				if r.Overridden != named || r.Enabled != (!named || enabled) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, rpctest.ExampleTestConfig().Validate())
	assert.NoError(t, rpctest.SimpleTestConfig().Validate())

	for name, mutate := range map[string]func(*rpctest.TestConfig){
		"no target":       func(c *rpctest.TestConfig) { c.TargetRPCURL = "" },
		"relative target": func(c *rpctest.TestConfig) { c.TargetRPCURL = "localhost:8899" },
		"bad remote":      func(c *rpctest.TestConfig) { c.RemoteRPCURL = "ftp://seed" },
		"negative global": func(c *rpctest.TestConfig) { c.GlobalConfig.Concurrency = -1 },
		"negative method": func(c *rpctest.TestConfig) { c.Methods["getAccountInfo"] = rpctest.MethodConfig{Limit: -5, Enabled: true} },
		"empty name":      func(c *rpctest.TestConfig) { c.Methods[" "] = rpctest.MethodConfig{Enabled: true} },
		"nothing enabled": func(c *rpctest.TestConfig) {
			for _, name := range rpctest.KnownMethods {
				c.Methods[name] = rpctest.MethodConfig{}
			}
		},
	} {
		config := rpctest.ExampleTestConfig()
		mutate(config)
		assert.Error(t, config.Validate(), name)
	}
}

func TestLoadTestConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "test.json")
	text := `{
		"target_rpc_url": "http://localhost:8899",
		"global_config": {"concurrency": 2, "duration": 5, "enabled": true},
		"methods": {"getProgramAccounts": {"concurrency": 1, "enabled": false}},
		"extra": "ignored"
	}`
	require.NoError(t, ioutil.WriteFile(path, []byte(text), 0644))

	config, err := rpctest.LoadTestConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", config.TargetRPCURL)
	assert.Equal(t, rpctest.GlobalConfig{Concurrency: 2, Duration: 5}, config.GlobalConfig)
	assert.Equal(t, []string{rpctest.MethodGetAccountInfo, rpctest.MethodGetMultipleAccounts}, config.EnabledMethods())

	_, err = rpctest.LoadTestConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	_, err = rpctest.ParseTestConfig([]byte("{"))
	assert.Error(t, err)
}

func TestParseMethodFlag(t *testing.T) {
	for flag, expected := range map[string]rpctest.MethodConfig{
		"getAccountInfo=10,20,50":       {Concurrency: 10, Duration: 20, Limit: 50, Enabled: true},
		"getAccountInfo=10":             {Concurrency: 10, Enabled: true},
		"getAccountInfo=,30,":           {Duration: 30, Enabled: true},
		"getAccountInfo=1,2,3,disabled": {Concurrency: 1, Duration: 2, Limit: 3},
		"getAccountInfo= 4 , 5 , 6":     {Concurrency: 4, Duration: 5, Limit: 6, Enabled: true},
	} {
		name, m, err := rpctest.ParseMethodFlag(flag)
		if assert.NoError(t, err, flag) {
			assert.Equal(t, rpctest.MethodGetAccountInfo, name, flag)
			assert.Equal(t, expected, m, flag)
		}
	}

	for _, flag := range []string{"", "getAccountInfo", "=1,2,3", "getAccountInfo=a", "getAccountInfo=1,2,3,off", "getAccountInfo=1,2,3,disabled,5"} {
		_, _, err := rpctest.ParseMethodFlag(flag)
		if assert.Error(t, err, flag) {
			// Errors carry a stack trace like the rest of the package's.
			assert.Contains(t, fmt.Sprintf("%+v", err), "rpctest.ParseMethodFlag", flag)
		}
	}
}
