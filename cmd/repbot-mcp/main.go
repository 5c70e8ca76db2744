package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/repbot/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("REPBOT_URL"), "RepBot server URL (e.g. https://repbot.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("REPBOT_AUTH_API_KEY"), "API key for the RepBot REST API")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repbot-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" || *apiKey == "" {
		fmt.Fprintf(os.Stderr, "Usage: repbot-mcp -server <URL> -api-key <key>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := mcp.New(mcp.NewHTTPClient(*serverURL, *apiKey), Version, log)
	log.Info("repbot-mcp serving stdio", "server", *serverURL)
	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server failed", "error", err)
		os.Exit(1)
	}
}
