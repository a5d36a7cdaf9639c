package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	commoncli "github.com/twitter/rpctest/common/client"
	"github.com/twitter/rpctest/common/dialer"
	"github.com/twitter/rpctest/common/stats"
	"github.com/twitter/rpctest/rpctest"
)

// RPCTestCLIClient includes fields required for CLI client handling
type RPCTestCLIClient struct {
	commoncli.SimpleClient

	// Base for the rpctest.ClientConfig built in Init; BaseURL, HTTPClient and Stats are always replaced.
	clientConfig rpctest.ClientConfig
}

func (c *RPCTestCLIClient) Exec() error {
	return c.RootCmd.Execute()
}

func NewSimpleCLIClient() (commoncli.CLIClient, error) {
	return newCLIClient(rpctest.ClientConfig{}), nil
}

func newCLIClient(config rpctest.ClientConfig) *RPCTestCLIClient {
	c := &RPCTestCLIClient{clientConfig: config}

	c.RootCmd = &cobra.Command{
		Use:                "rpctestcl",
		Short:              "rpctestcl is a command-line client to the RPC Test Server",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.Init,
		Run:                func(*cobra.Command, []string) {},
		PersistentPostRunE: c.Close,
	}
	flags := c.RootCmd.PersistentFlags()
	flags.StringVar(&c.Addr, "addr", "", fmt.Sprintf("RPC Test Server URL. If unset, uses $%s or %s", dialer.ServerURLEnvVar, rpctest.DefaultBaseURL))
	flags.StringVar(&c.LogLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")
	flags.IntVar(&c.HTTPTries, "http_tries", rpctest.DefaultHTTPTries, "Attempts per HTTP request, with exponential backoff between them")
	flags.BoolVar(&c.PrintStats, "print_stats", false, "Print client stats as JSON on exit")

	c.addCmd(&healthCmd{})
	c.addCmd(&runTestCmd{})
	c.addCmd(&getStatusCmd{})
	c.addCmd(&getResultsCmd{})
	c.addCmd(&listTestsCmd{})
	c.addCmd(&deleteTestCmd{})
	c.addCmd(&watchTestCmd{})
	c.addCmd(&showConfigCmd{})
	c.addCmd(&exampleCmd{})

	return c
}

// Can only be called from cobra command run or hook
func (c *RPCTestCLIClient) Init(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Error(err)
		return err
	}
	log.SetLevel(level)

	addr, err := dialer.NewServerURLResolver(c.Addr, rpctest.DefaultBaseURL).Resolve()
	if err != nil {
		return err
	}
	c.Addr = addr

	if c.HTTPTries < 1 {
		return fmt.Errorf("--http_tries must be at least 1, got %d", c.HTTPTries)
	}

	c.Stats = stats.DefaultStatsReceiver()
	config := c.clientConfig
	config.BaseURL = c.Addr
	config.HTTPClient = rpctest.MakePesterClient(c.HTTPTries)
	config.Stats = c.Stats
	c.Client = rpctest.NewClient(config)

	log.Debugf("Using RPC Test Server at %s", c.Addr)
	return nil
}

// Needs cobra parameters for use from rootCmd
func (c *RPCTestCLIClient) Close(cmd *cobra.Command, args []string) error {
	if c.PrintStats && c.Stats != nil {
		fmt.Fprintf(cmd.OutOrStderr(), "%s\n", c.Stats.Render(true))
	}
	return nil
}

func (c *RPCTestCLIClient) addCmd(cmd commoncli.Cmd) {
	cobraCmd := cmd.RegisterFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.Run(&c.SimpleClient, innerCmd, args)
	}
	c.RootCmd.AddCommand(cobraCmd)
}

func handleArg(args []string, what string) (rpctest.TestHandle, error) {
	if len(args) == 0 || args[0] == "" {
		return rpctest.TestHandle{}, fmt.Errorf("a test id must be provided in order to %s", what)
	}
	return rpctest.TestHandle{TestID: args[0]}, nil
}
