/*
Package cli provides rpctestcl, a command line client for the RPC Test
Server API. Each subcommand maps to one operation of rpctest.Client, except
for "example", which walks through a complete test lifecycle.
The server is resolved via common/dialer: --addr, then $RPCTEST_SERVER_URL,
then http://localhost:8080.
*/
package cli
