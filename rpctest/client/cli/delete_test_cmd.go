package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
)

type deleteTestCmd struct{}

func (c *deleteTestCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "delete_test",
		Short: "Delete a test from the server",
	}
}

func (c *deleteTestCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	handle, err := handleArg(args, "delete it")
	if err != nil {
		return err
	}
	log.Infof("Deleting test %s", handle)
	if err := cl.Client.DeleteTest(context.Background(), handle); err != nil {
		return fmt.Errorf("Error deleting test: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Test %s deleted\n", handle)
	return nil
}
