package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
)

type getStatusCmd struct{}

func (c *getStatusCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "get_status",
		Short: "Print the status of a test",
	}
}

func (c *getStatusCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	handle, err := handleArg(args, "get its status")
	if err != nil {
		return err
	}
	status, err := cl.Client.GetStatus(context.Background(), handle)
	if err != nil {
		return fmt.Errorf("Error getting status: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", status)
	return nil
}
