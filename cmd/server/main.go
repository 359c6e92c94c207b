// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/postpin/backend/internal/config"
	"github.com/postpin/backend/internal/server"
)

func main() {
	cmd := &cli.Command{
		Name:   "postpin-server",
		Usage:  "Start the PostPin API server",
		Flags:  config.Flags(),
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
