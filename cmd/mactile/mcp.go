package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/mactile/internal/config"
	"github.com/1broseidon/mactile/internal/ipc"
	"github.com/1broseidon/mactile/internal/mcp"
)

func printMCPUsage() {
	fmt.Fprintln(os.Stderr, "Usage: mactile mcp serve")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Start an MCP server on stdio exposing window queries and")
	fmt.Fprintln(os.Stderr, "placement commands to MCP clients. Requires a running daemon.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage()
		return 2
	}
	switch args[0] {
	case "serve":
		runMCPServe(args[1:])
		return 0
	case "help", "-h", "--help":
		printMCPUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp subcommand: %s\n\n", args[0])
		printMCPUsage()
		return 2
	}
}

func runMCPServe(args []string) {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "mcp serve takes no arguments")
		os.Exit(2)
	}

	// stdout is the MCP transport; all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	socket, err := cfg.SocketPath()
	if err != nil {
		log.Fatalf("Failed to resolve daemon socket: %v", err)
	}
	client := ipc.NewClientWithSocket(socket)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	server := mcp.NewServer(client, logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
