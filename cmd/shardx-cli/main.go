package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
	shardxnet "github.com/peterkuimelis/shardx/internal/net"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "host":
		err = runHost(ctx, os.Args[2:])
	case "join":
		err = runJoin(ctx, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  shardx-cli host [--deck N] [--port P] [--decks FILE] [--catalog FILE]")
	fmt.Println("  shardx-cli join [--deck N] [--addr ADDR]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  host    Start a game server and play as Player 1")
	fmt.Println("  join    Connect to a game server and play as Player 2")
	fmt.Println()
	fmt.Println("Rules and debug switches come from SHARDX_* environment variables.")
}

func newLogger() (*zap.Logger, error) {
	return game.NewLogger(os.Getenv("SHARDX_LOG_JSON") != "")
}

func runHost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	deck := fs.Int("deck", 1, "deck number to use (from the decks file)")
	port := fs.String("port", "9000", "TCP port to listen on")
	decksFile := fs.String("decks", "", "path to decks file (default: built-in starter decks)")
	catalogFile := fs.String("catalog", "", "path to card catalog (default: built-in catalog)")
	fs.Parse(args)

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	assets, err := game.LoadAssets(*catalogFile, *decksFile, logger)
	if err != nil {
		return err
	}
	srv := &shardxnet.Server{
		Catalog:  assets.Catalog,
		Decks:    assets.Decks,
		Env:      assets.Env,
		Addr:     ":" + *port,
		HostDeck: *deck,
		Logger:   logger,
		In:       os.Stdin,
		Out:      os.Stdout,
	}
	return srv.Run(ctx)
}

func runJoin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	deck := fs.Int("deck", 2, "deck number to use (from the host's decks file)")
	addr := fs.String("addr", "localhost:9000", "server address to connect to")
	fs.Parse(args)

	return shardxnet.Connect(ctx, *addr, *deck, os.Stdin, os.Stdout)
}
