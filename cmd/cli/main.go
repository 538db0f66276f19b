package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gamestarter/internal/cli"
	"github.com/dmitrijs2005/gamestarter/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrMismatch) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

}
