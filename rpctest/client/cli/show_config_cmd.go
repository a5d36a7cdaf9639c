package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
	"github.com/twitter/rpctest/rpctest"
)

type showConfigCmd struct {
	configFile string
	example    bool
}

func (c *showConfigCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "show_config",
		Short: "Validate a test config and print what each method will run with",
	}
	r.Flags().StringVar(&c.configFile, "config", "", "JSON test config")
	r.Flags().BoolVar(&c.example, "example", false, "Show the config used by the example command")
	return r
}

// Doesn't contact the server.
func (c *showConfigCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	var config *rpctest.TestConfig
	switch {
	case c.configFile != "":
		var err error
		if config, err = rpctest.LoadTestConfig(c.configFile); err != nil {
			return err
		}
	case c.example:
		config = rpctest.ExampleTestConfig()
	default:
		return fmt.Errorf("one of --config or --example is required")
	}

	rpctest.WriteResolvedConfig(cmd.OutOrStdout(), config)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("Invalid test config: %v", err)
	}
	return nil
}
