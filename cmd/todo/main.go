package main

import (
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nboone/todoapp/internal/cli"
	"github.com/nboone/todoapp/internal/config"
)

func main() {
	cfg := config.Load()

	// Root flags (apply to every subcommand)
	serverURL := pflag.String("server", cfg.ServerURL, "todo server base URL")
	timeout := pflag.Duration("timeout", 10*time.Second, "request timeout")
	pflag.Parse()

	// Hand the remaining args to the CLI runner.
	args := pflag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	os.Exit(cli.Run(args, cli.Options{
		ServerURL: *serverURL,
		Timeout:   *timeout,
	}))
}
