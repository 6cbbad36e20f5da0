package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophlock/internal/cli"
	"github.com/dmitrijs2005/gophlock/internal/config"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	// the config loader panics on unreadable sources
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", r)
			code = 2
		}
	}()

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}

	app.Run(ctx)
	return 0
}
