package cli

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
	"github.com/twitter/rpctest/common/errors"
	"github.com/twitter/rpctest/rpctest"
)

type exampleCmd struct {
	maxWait time.Duration
	keep    bool
}

func (c *exampleCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "example",
		Short: "Walk through a test: health, list, create, wait, results, list, delete",
	}
	r.Flags().DurationVar(&c.maxWait, "max_wait", rpctest.DefaultMaxWait, "How long to wait for the test to complete")
	r.Flags().BoolVar(&c.keep, "keep", false, "Don't delete the test at the end")
	return r
}

// Run only fails when the server is down or won't start the test; after that
// every step is best effort and failures are logged.
func (c *exampleCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "RPC Test Server Client Example\n")

	if _, err := cl.Client.HealthCheck(ctx); err != nil {
		log.Errorf("Cannot reach server at %s, make sure it is running", cl.Addr)
		return errors.NewError(err, errors.HealthCheckFailureExitCode)
	}
	fmt.Fprintf(out, "Server is running at %s\n", cl.Addr)

	fmt.Fprintf(out, "\nListing existing tests...\n")
	c.listTests(ctx, cl, cmd)

	config := rpctest.ExampleTestConfig()
	fmt.Fprintf(out, "\nStarting a test with method-specific configurations...\n")
	rpctest.WriteResolvedConfig(out, config)
	handle, err := cl.Client.CreateTest(ctx, config)
	if err != nil {
		log.Error("Failed to start test, exiting")
		return errors.NewError(err, errors.CreateTestFailureExitCode)
	}
	fmt.Fprintf(out, "Test started, id: %s\n", handle)

	if err := cl.Client.WaitForCompletion(ctx, handle, c.maxWait); err != nil {
		log.Errorf("Test %s did not complete: %v", handle, err)
	} else {
		fmt.Fprintf(out, "\nTest completed successfully!\n")
		result, err := cl.Client.GetResults(ctx, handle)
		if err != nil {
			log.Errorf("Failed to get results for %s: %v", handle, err)
		}
		rpctest.WriteSummary(out, result)
	}

	fmt.Fprintf(out, "\nListing tests after completion...\n")
	c.listTests(ctx, cl, cmd)

	if !c.keep {
		fmt.Fprintf(out, "\nCleaning up test %s...\n", handle)
		if err := cl.Client.DeleteTest(ctx, handle); err != nil {
			log.Errorf("Failed to delete test %s: %v", handle, err)
		}
	}

	fmt.Fprintf(out, "\nExample completed\n")
	return nil
}

func (c *exampleCmd) listTests(ctx context.Context, cl *client.SimpleClient, cmd *cobra.Command) {
	raw, err := cl.Client.ListTests(ctx)
	if err != nil {
		log.Errorf("Failed to list tests: %v", err)
		return
	}
	infos, err := rpctest.DecodeTestInfos(raw)
	if err != nil {
		log.Warnf("Couldn't decode test list, printing it as is: %v", err)
		printJSON(cmd, raw)
		return
	}
	for _, info := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "   %s %s\n", info.ID, info.Status)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d test(s)\n", len(infos))
}
