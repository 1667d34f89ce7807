// ABOUTME: Entry point for the Naova procurement CLI, MCP server and HTTP API
// ABOUTME: Routes to a command group and its subcommand based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/cli"
	"github.com/victor-4502/naova-mvp-sub002/config"
	"github.com/victor-4502/naova-mvp-sub002/db"
)

const version = "0.2.0"

type command func(a *app.App, args []string) error

var groups = map[string]map[string]command{
	"request": {
		"add":     cli.RequestAddCommand,
		"list":    cli.RequestListCommand,
		"move":    cli.RequestMoveCommand,
		"process": cli.RequestProcessCommand,
	},
	"pipeline": {
		"show": cli.PipelineShowCommand,
	},
	"order": {
		"create":  cli.OrderCreateCommand,
		"track":   cli.OrderTrackCommand,
		"advance": cli.OrderAdvanceCommand,
		"cancel":  cli.OrderCancelCommand,
	},
	"supplier": {
		"add":  cli.SupplierAddCommand,
		"list": cli.SupplierListCommand,
	},
	"rfq": {
		"send": cli.RFQSendCommand,
	},
	"quote": {
		"receive": cli.QuoteReceiveCommand,
		"compare": cli.QuoteCompareCommand,
	},
	"automation": {
		"run":    cli.AutomationRunCommand,
		"daemon": cli.AutomationDaemonCommand,
	},
	"intake": {
		"login": cli.IntakeLoginCommand,
		"gmail": cli.IntakeGmailCommand,
	},
	"viz": {
		"order": cli.VizOrderCommand,
	},
	"export": {
		"pipeline": cli.ExportPipelineCommand,
	},
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/naova/naova.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("naova version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	logger := cfg.NewLogger()

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if *initOnly {
		log.Printf("Database initialized at %s", cfg.DBPath)
		return
	}

	a, err := app.New(database, cfg, logger, nil)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	name, rest := args[0], args[1:]
	switch name {
	case "mcp":
		err = cli.MCPCommand(a, version)
	case "serve":
		err = cli.ServeCommand(a, rest)
	default:
		group, ok := groups[name]
		if !ok {
			fmt.Printf("Unknown command: %s\n\n", name)
			printUsage()
			os.Exit(1)
		}
		if len(rest) == 0 {
			fmt.Printf("Error: %s requires a subcommand\n\n", name)
			printUsage()
			os.Exit(1)
		}
		run, ok := group[rest[0]]
		if !ok {
			fmt.Printf("Unknown %s command: %s\n\n", name, rest[0])
			printUsage()
			os.Exit(1)
		}
		err = run(a, rest[1:])
	}

	if err != nil {
		database.Close()
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Print(`naova - procurement pipeline for Naova

Usage:
  naova [--db-path PATH] <command> [subcommand] [flags]

Global flags:
  --version           Show version and exit
  --db-path PATH      Database path
  --init              Initialize database and exit

Commands:
  request add [--client ID] [--source S] [--urgency U] TEXT
  request list [--client ID] [--stage S] [--limit N]
  request move --id ID --stage S
  request process --id ID

  pipeline show [--client ID] [--per-stage N]

  supplier add [--email E] [--phone P] [--categories a,b] [--inactive] NAME
  supplier list

  rfq send --request ID
  quote receive --request ID [--file quote.json]
  quote compare --request ID

  order create --quote ID
  order track --id ID
  order advance --id ID [--meta key=value ...]
  order cancel --id ID --reason TEXT

  automation run [--no-send]
  automation daemon [--interval 15m]

  intake login
  intake gmail

  viz order --id ID [--format dot|svg|png] [--out FILE]
  export pipeline [--out FILE] [--client ID]

  mcp                 Start the MCP server on stdio
  serve [--port N] [--automation]

Environment:
  NAOVA_ROLE, NAOVA_CLIENT_ID select the identity for local commands.
  See .env.example for every setting.
`)
}
