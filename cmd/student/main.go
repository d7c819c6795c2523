package main

import (
	"context"
	"log"
	"os"

	"github.com/studaxis/studaxis/internal/client/cli"
	"github.com/studaxis/studaxis/internal/client/config"
	"github.com/studaxis/studaxis/internal/flagx"
	"github.com/studaxis/studaxis/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger()

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	// everything that is not a recognized flag is the subcommand
	args := flagx.PositionalArgs(os.Args[1:])
	os.Exit(app.Run(ctx, args))
}
