package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jkwon/parlor/internal/core"
	"github.com/jkwon/parlor/internal/core/debug"
	"github.com/jkwon/parlor/internal/server"
)

var configPath = flag.String("config", ".", "Path to the directory containing the config file")

func main() {
	flag.Parse()
	config := core.LoadConfig(*configPath)

	logger, err := core.NewLogger(config)
	if err != nil {
		fmt.Printf("error initializing logger: %v\n", err)
		os.Exit(1)
	}

	if config.Debugging.PprofEnabled {
		debug.StartPprofServer(logger, config.Debugging.PprofPort)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		<-signals
		logger.Info("shutdown signal received")
		cancel()
	}()

	lobby := server.New(config, logger)
	if err := lobby.Run(ctx); err != nil {
		logger.Errorf("lobby server exited: %v", err)
		os.Exit(1)
	}
}
