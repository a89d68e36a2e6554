// Package main is the CLI command itself.
package main

import (
	"context"
	"os"
	"os/signal"

	"go.viam.com/dyntree/cli"
	"go.viam.com/dyntree/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args)
	stop()
	if err != nil {
		logging.Global().Fatal(err)
	}
}
