package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	appkg "github.com/xenking/zm-storefront/internal/app"
	"github.com/xenking/zm-storefront/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := appkg.LoadCLIConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := cli.NewRootCommand(appkg.CartOpener(cfg), cli.NewLogger).ExecuteContext(ctx); err != nil {
		// cobra has already printed the error.
		os.Exit(1)
	}
}
