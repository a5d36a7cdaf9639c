package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
)

type listTestsCmd struct{}

func (c *listTestsCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "list_tests",
		Short: "List the tests known to the server, as JSON",
	}
}

func (c *listTestsCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	raw, err := cl.Client.ListTests(context.Background())
	if err != nil {
		return fmt.Errorf("Error listing tests: %v", err)
	}
	printJSON(cmd, raw)
	return nil
}
