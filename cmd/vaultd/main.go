package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arkadym/sealbox/internal/logging"
	"github.com/arkadym/sealbox/internal/vault"
)

func main() {

	cfg, err := vault.LoadConfig()
	if err != nil {
		log.Printf("%v", err)
		return
	}

	logger := logging.NewJSON(os.Stdout)

	store, err := vault.NewStore(vault.StoreConfig{Path: cfg.DataDir, MasterKey: cfg.MasterKey})
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	srv := vault.NewServer(cfg.Addr, cfg.Token, store, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error(ctx, "vault daemon stopped", "error", err)
	}
}
