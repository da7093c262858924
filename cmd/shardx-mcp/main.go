package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
	shardxmcp "github.com/peterkuimelis/shardx/internal/mcp"
)

func main() {
	decks := flag.String("decks", "", "path to decks YAML file (default: built-in starter decks)")
	catalog := flag.String("catalog", "", "path to card catalog YAML file (default: built-in catalog)")
	port := flag.String("port", "9999", "TCP port for human player connection")
	flag.Parse()

	if err := run(*catalog, *decks, *port); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogFile, decksFile, port string) error {
	// stdout carries the MCP protocol; diagnostics go to stderr.
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	defer logger.Sync()

	assets, err := game.LoadAssets(catalogFile, decksFile, logger)
	if err != nil {
		return err
	}

	h := shardxmcp.NewHandler(assets.Catalog, assets.Decks, assets.Env, port, logger)
	defer h.Close()

	s := server.NewMCPServer("shardx", "1.0.0", server.WithToolCapabilities(false))
	h.RegisterTools(s)
	return server.ServeStdio(s)
}
