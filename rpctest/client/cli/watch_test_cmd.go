package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
	"github.com/twitter/rpctest/common/errors"
	"github.com/twitter/rpctest/rpctest"
)

type watchTestCmd struct {
	maxWait time.Duration
}

func (c *watchTestCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "watch_test",
		Short: "Wait for a test to complete, then print its results",
	}
	r.Flags().DurationVar(&c.maxWait, "max_wait", rpctest.DefaultMaxWait, "How long to wait before giving up")
	return r
}

func (c *watchTestCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	handle, err := handleArg(args, "watch it")
	if err != nil {
		return err
	}
	return waitAndPrint(context.Background(), cl, cmd, handle, c.maxWait)
}

// waitAndPrint waits for handle and prints its results. A failed test and a
// timeout get their own exit codes.
func waitAndPrint(ctx context.Context, cl *client.SimpleClient, cmd *cobra.Command, handle rpctest.TestHandle, maxWait time.Duration) error {
	err := cl.Client.WaitForCompletion(ctx, handle, maxWait)
	switch {
	case err == rpctest.ErrTestFailed:
		return errors.NewError(err, errors.TestFailedExitCode)
	case rpctest.IsTimeout(err):
		return errors.NewError(err, errors.WaitTimeoutExitCode)
	case err != nil:
		return err
	}

	result, err := cl.Client.GetResults(ctx, handle)
	if err != nil {
		return err
	}
	printResults(cmd, handle, result, false)
	return nil
}
