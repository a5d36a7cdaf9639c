package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/rpctest/common/errors"
	"github.com/twitter/rpctest/common/log/hooks"
	"github.com/twitter/rpctest/rpctest/client/cli"
)

// CLI binary to talk to the RPC Test Server
//	Supported commands: (see "-h" for all options)
//		health
//		run_test [--config file.json | flags] [--wait]
//		get_status [test id]
//		get_results [test id]
//		list_tests
//		delete_test [test id]
//		watch_test [test id]
//		show_config [--config file.json | --example]
//		example
//	Global flags:
//		--addr [server URL, else $RPCTEST_SERVER_URL, else http://localhost:8080]
//		--log_level [<error|info|debug> level and above should be logged]
//		--http_tries [attempts per request]
//		--print_stats

func main() {
	log.AddHook(hooks.NewContextHook())

	cl, err := cli.NewSimpleCLIClient()
	if err != nil {
		log.Fatal("Failed to create new rpctest CLI client: ", err)
	}

	if err := cl.Exec(); err != nil {
		log.Error("Error running rpctestcl: ", err)
		os.Exit(int(errors.GetExitCode(err)))
	}
}
