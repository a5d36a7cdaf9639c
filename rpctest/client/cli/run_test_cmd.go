package cli

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
	"github.com/twitter/rpctest/rpctest"
)

type runTestCmd struct {
	configFile  string
	targetURL   string
	remoteURL   string
	apiKey      string
	programs    []string
	concurrency int
	duration    int
	limit       int
	methods     []string
	wait        bool
	maxWait     time.Duration
}

func (c *runTestCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "run_test",
		Short: "Start a load test, from a JSON config file and/or flags",
	}
	defaults := rpctest.SimpleTestConfig()
	r.Flags().StringVar(&c.configFile, "config", "", "JSON test config; flags set explicitly override its fields")
	r.Flags().StringVar(&c.targetURL, "target_url", defaults.TargetRPCURL, "RPC endpoint to load test")
	r.Flags().StringVar(&c.remoteURL, "remote_url", "", "RPC endpoint used to seed test accounts")
	r.Flags().StringVar(&c.apiKey, "api_key", "", "API key for the seed RPC endpoint")
	r.Flags().StringSliceVar(&c.programs, "program", nil, "Program id whose accounts are used as test data (repeatable)")
	r.Flags().IntVar(&c.concurrency, "concurrency", defaults.GlobalConfig.Concurrency, "Default number of concurrent workers per method")
	r.Flags().IntVar(&c.duration, "duration", defaults.GlobalConfig.Duration, "Default duration of each method, in seconds")
	r.Flags().IntVar(&c.limit, "limit", defaults.GlobalConfig.Limit, "Default request rate limit per method, 0 for unlimited")
	r.Flags().StringArrayVar(&c.methods, "method", nil, "Per method override as name=concurrency,duration,limit[,disabled] (repeatable)")
	r.Flags().BoolVar(&c.wait, "wait", false, "Wait for the test to complete and print its results")
	r.Flags().DurationVar(&c.maxWait, "max_wait", rpctest.DefaultMaxWait, "How long --wait waits before giving up")
	return r
}

func (c *runTestCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	config, err := c.buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("Invalid test config: %v", err)
	}

	log.Infof("Starting test against %s, methods %v", config.TargetRPCURL, config.EnabledMethods())
	ctx := context.Background()
	handle, err := cl.Client.CreateTest(ctx, config)
	if err != nil {
		return fmt.Errorf("Error starting test: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", handle)

	if !c.wait {
		return nil
	}
	return waitAndPrint(ctx, cl, cmd, handle, c.maxWait)
}

// buildConfig starts from --config, or the defaults, and applies the flags the user set.
func (c *runTestCmd) buildConfig(cmd *cobra.Command) (*rpctest.TestConfig, error) {
	config := rpctest.SimpleTestConfig()
	if c.configFile != "" {
		var err error
		if config, err = rpctest.LoadTestConfig(c.configFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("target_url") || config.TargetRPCURL == "" {
		config.TargetRPCURL = c.targetURL
	}
	if flags.Changed("remote_url") {
		config.RemoteRPCURL = c.remoteURL
	}
	if flags.Changed("api_key") {
		config.RPCAPIKey = c.apiKey
	}
	if flags.Changed("program") {
		config.Programs = c.programs
	}
	if flags.Changed("concurrency") || c.configFile == "" {
		config.GlobalConfig.Concurrency = c.concurrency
	}
	if flags.Changed("duration") || c.configFile == "" {
		config.GlobalConfig.Duration = c.duration
	}
	if flags.Changed("limit") || c.configFile == "" {
		config.GlobalConfig.Limit = c.limit
	}
	for _, m := range c.methods {
		name, method, err := rpctest.ParseMethodFlag(m)
		if err != nil {
			return nil, err
		}
		if config.Methods == nil {
			config.Methods = map[string]rpctest.MethodConfig{}
		}
		config.Methods[name] = method
	}
	return config, nil
}
