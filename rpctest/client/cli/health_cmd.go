package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/twitter/rpctest/common/client"
)

type healthCmd struct{}

func (c *healthCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the RPC Test Server is up",
	}
}

func (c *healthCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	info, err := cl.Client.HealthCheck(context.Background())
	if err != nil {
		return fmt.Errorf("Server at %s is not healthy: %v", cl.Addr, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server is running: %s %s\n", info.Service, info.Version)
	if len(info.AvailableMethods) > 0 {
		fmt.Fprintf(out, "Available methods: %v\n", info.AvailableMethods)
	}
	endpoints := make([]string, 0, len(info.Endpoints))
	for e := range info.Endpoints {
		endpoints = append(endpoints, e)
	}
	sort.Strings(endpoints)
	for _, e := range endpoints {
		fmt.Fprintf(out, "   %-20s %s\n", e, info.Endpoints[e])
	}
	return nil
}
