package main

import (
	"context"
	"log"
	"os"

	"github.com/awnumar/memguard"

	"github.com/dmitrijs2005/zkvault/internal/server"
	"github.com/dmitrijs2005/zkvault/internal/server/config"
)

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		memguard.Purge()
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
