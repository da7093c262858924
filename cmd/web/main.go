package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/peterkuimelis/shardx/internal/game"
	"github.com/peterkuimelis/shardx/internal/web"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	decksFile := flag.String("decks", "", "path to decks YAML file (default: built-in starter decks)")
	catalogFile := flag.String("catalog", "", "path to card catalog YAML file (default: built-in catalog)")
	flag.Parse()

	logger, err := game.NewLogger(os.Getenv("SHARDX_LOG_JSON") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	assets, err := game.LoadAssets(*catalogFile, *decksFile, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := web.NewServer(assets.Catalog, assets.Decks, logger)
	fmt.Printf("shardx web UI listening on http://localhost:%d\n", *port)
	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", *port)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
