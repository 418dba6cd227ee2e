package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/ultramemo/internal/api"
	"github.com/hazyhaar/ultramemo/internal/config"
	"github.com/hazyhaar/ultramemo/internal/db"
	"github.com/hazyhaar/ultramemo/internal/mcp"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "version":
		fmt.Printf("ultramemo %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ultramemo — ordered tree note store

Usage:
  ultramemo serve [--config config.toml] [--addr :8765] [--db path]
  ultramemo mcp   [--config config.toml] [--db path]
  ultramemo version
  ultramemo help

Commands:
  serve     Start the HTTP server
  mcp       Serve the MCP tool surface over stdio
  version   Print version
  help      Show this help`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	addr := fs.String("addr", "", "listen address (overrides config)")
	dbPath := fs.String("db", "", "database path (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer store.Close()

	mux := http.NewServeMux()
	api.New(store, cfg.Search.DefaultLimit).RegisterRoutes(mux)

	log.Printf("ultramemo %s listening on %s", version, cfg.Server.Addr)
	log.Printf("database: %s", cfg.Database.Path)

	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	dbPath := fs.String("db", "", "database path (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer store.Close()

	if err := server.ServeStdio(mcp.NewServer(store, version)); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
