// Command pullserver runs the working copy's synchronization command on
// demand and reports whether changes were applied.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/deixis/pullserver"
	"github.com/deixis/pullserver/internal/config"
	pullmcp "github.com/deixis/pullserver/internal/mcp"
	"github.com/deixis/pullserver/internal/pull"
	"github.com/deixis/pullserver/internal/report"
	"github.com/deixis/pullserver/internal/runner"
	"github.com/deixis/pullserver/internal/server"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("pullserver: ")

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serveMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(pullserver.Version)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "pullserver: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: pullserver [command] [flags]

Commands:
  serve       Serve GET / on the configured address (default)
  mcp         Serve the pull_sync and pull_inspect tools over stdio (or -http)
  version     Print the version
  help        Show this help

Use "pullserver <command> -h" for command-specific flags.`)
}

// --- serve ---

func serveMain(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default "+config.DefaultAddr+")")
	configPath := fs.String("config", "", "path to configuration file (default ./"+config.FileName+")")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	syncer, _ := newSyncer(cfg, os.Stdout)
	srv := server.New(syncer,
		server.WithNoOpStatus(cfg.NoOpStatusCode()),
		server.WithLogger(log.Default()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return server.ListenAndServe(ctx, cfg.ListenAddr(), srv.Handler(), log.Default())
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file (default ./"+config.FileName+")")
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "serve MCP over streamable HTTP on address (e.g. :9090) instead of stdio")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(pullmcp.Instructions)
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *httpAddr != "" {
		syncer, store := newSyncer(cfg, os.Stdout)
		handler := pullmcp.NewHTTPHandler(pullmcp.NewServer(syncer, store))
		return server.ListenAndServe(ctx, *httpAddr, handler, log.Default())
	}

	// Stdout carries the MCP transport; applied output is echoed to stderr.
	syncer, store := newSyncer(cfg, os.Stderr)
	srv := pullmcp.NewServer(syncer, store)
	return srv.Run(ctx, &mcpsdk.StdioTransport{})
}

// --- shared ---

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFile(path, true)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	workspace, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newSyncer(cfg *config.Config, echo io.Writer) (*pull.Syncer, *report.LRUStore) {
	store := report.NewLRUStore(cfg.HistorySize())

	s := &pull.Syncer{
		Runner: &runner.Runner{
			Timeout:   cfg.Timeout(),
			MaxOutput: cfg.MaxOutput,
		},
		Argv:  cfg.Argv(),
		Mode:  pull.Mode(cfg.SerializeMode()),
		Store: store,
		Echo:  echo,
		Log:   log.Default(),
	}
	if cfg.DetectHeads() {
		s.Heads = pull.ReadHead
	}
	return s, store
}
