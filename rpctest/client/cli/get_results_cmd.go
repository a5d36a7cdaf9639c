package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
	"github.com/twitter/rpctest/rpctest"
)

type getResultsCmd struct {
	raw bool
}

func (c *getResultsCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "get_results",
		Short: "Print the results of a completed test",
	}
	r.Flags().BoolVar(&c.raw, "json", false, "Print the result document as received instead of a summary")
	return r
}

func (c *getResultsCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	handle, err := handleArg(args, "get its results")
	if err != nil {
		return err
	}
	result, err := cl.Client.GetResults(context.Background(), handle)
	if err != nil {
		return fmt.Errorf("Error getting results: %v", err)
	}
	printResults(cmd, handle, result, c.raw)
	return nil
}

func printResults(cmd *cobra.Command, handle rpctest.TestHandle, result *rpctest.TestResult, raw bool) {
	out := cmd.OutOrStdout()
	if result == nil {
		fmt.Fprintf(out, "Test %s is still running\n", handle)
		return
	}
	if raw {
		printJSON(cmd, result.Raw)
		return
	}
	fmt.Fprintf(out, "Results for test %s:\n", handle)
	rpctest.WriteSummary(out, result)
}

func printJSON(cmd *cobra.Command, raw json.RawMessage) {
	pretty := &bytes.Buffer{}
	if err := json.Indent(pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", pretty)
}
