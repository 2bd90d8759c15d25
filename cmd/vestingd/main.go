// vestingd serves a devnet ledger over JSON-RPC for the vesting CLI.
//
// Usage:
//
//	vestingd [--fund addr:lovelace ...]  Run the ledger node
//	vestingd --reset                     Wipe the ledger, then run
//	vestingd init                        Write a default config file
//	vestingd --help                      Show help
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Klingon-tech/klingnet-vesting/config"
	klog "github.com/Klingon-tech/klingnet-vesting/internal/log"
	"github.com/Klingon-tech/klingnet-vesting/internal/node"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	klog.Output = stderr
	err := app(stdout, stderr).RunContext(ctx, args)
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, config.ErrConfiguration) {
		return 2
	}
	return 1
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return fmt.Errorf("%w: %v", config.ErrConfiguration, err)
}

func app(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:         "vestingd",
		Usage:        "devnet ledger node for the vesting tool",
		Writer:       stdout,
		ErrWriter:    stderr,
		OnUsageError: usageError,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "datadir", Usage: "data directory", Value: config.DefaultDataDir()},
			&cli.StringFlag{Name: "config", Usage: "config file (default <datadir>/vestingd.conf)"},
			&cli.StringFlag{Name: "network", Usage: "mainnet or testnet"},
			&cli.StringFlag{Name: "rpc-addr", Usage: "RPC listen address"},
			&cli.IntFlag{Name: "rpc-port", Usage: "RPC listen port"},
			&cli.StringFlag{Name: "storage", Usage: "badger or memory"},
			&cli.StringSliceFlag{Name: "fund", Usage: "address:lovelace paid on a fresh ledger"},
			&cli.BoolFlag{Name: "reset", Usage: "wipe the ledger before starting"},
			&cli.StringSliceFlag{Name: "project-id", Usage: "accepted access credential"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error or disabled", Value: "info"},
			&cli.BoolFlag{Name: "log-json", Usage: "log as JSON"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:         "init",
				Usage:        "write a default config file",
				OnUsageError: usageError,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: initConfig,
			},
		},
	}
}

func configPath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return filepath.Join(c.String("datadir"), "vestingd.conf")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(configPath(c), config.NetworkType(c.String("network")))
	if err != nil {
		return nil, err
	}
	cfg.DataDir = c.String("datadir")
	if c.IsSet("rpc-addr") {
		cfg.RPC.Addr = c.String("rpc-addr")
	}
	if c.IsSet("rpc-port") {
		cfg.RPC.Port = c.Int("rpc-port")
	}
	if c.IsSet("storage") {
		cfg.Devnet.Storage = c.String("storage")
	}
	if c.IsSet("fund") {
		cfg.Devnet.Fund = c.StringSlice("fund")
	}
	cfg.Devnet.Reset = c.Bool("reset")
	if c.IsSet("project-id") {
		cfg.RPC.ProjectIDs = c.StringSlice("project-id")
	}
	if c.IsSet("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = c.String("log-level")
	}
	if c.Bool("log-json") {
		cfg.Log.JSON = true
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("%w: unknown command %q", config.ErrConfiguration, c.Args().First())
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	n, err := node.New(cfg)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		n.Stop()
		return err
	}
	fmt.Fprintf(c.App.Writer, "Listening on %s\n", n.RPCAddr())

	<-c.Context.Done()
	n.Stop()
	return nil
}

func initConfig(c *cli.Context) error {
	path := configPath(c)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", config.ErrConfiguration, path)
	}
	network := config.NetworkType(c.String("network"))
	if network == "" {
		network = config.Testnet
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := config.WriteDefaultConfig(path, network); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}
