package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/runavault/internal/client/cli"
	"github.com/dmitrijs2005/runavault/internal/client/config"
	"github.com/dmitrijs2005/runavault/internal/flagx"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := flagx.Positional(os.Args[1:], append([]string{"-c", "-config"}, config.ClientFlags...))
	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
