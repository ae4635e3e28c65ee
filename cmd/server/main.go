package main

import (
	"context"
	"log"
	"os"

	"github.com/arkadym/sealbox/internal/server"
	"github.com/arkadym/sealbox/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	app.Run(context.Background())
}
