// vesting locks funds at a time-locked validator and unlocks them once the
// deadline has passed.
//
// Usage:
//
//	vesting generate          Create me.sk and me.addr
//	vesting lock              Lock the configured amount until the deadline
//	vesting unlock <txid>     Spend the output locked by <txid>
//	vesting address           Print the identity address
//	vesting balance           Show available and locked funds
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Klingon-tech/klingnet-vesting/config"
	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-vesting/internal/log"
	"github.com/Klingon-tech/klingnet-vesting/internal/rpcclient"
	"github.com/urfave/cli/v2"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// deps are the process-level collaborators a command run uses.
type deps struct {
	stdout   io.Writer
	stderr   io.Writer
	dial     func(cfg *config.Config) ledger.Service
	password func(prompt string) ([]byte, error)
	now      func() time.Time
}

func defaultDeps() deps {
	return deps{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		dial:     dialLedger,
		password: readPassword,
		now:      time.Now,
	}
}

// dialLedger connects to the node named by cfg.Ledger.
func dialLedger(cfg *config.Config) ledger.Service {
	client := rpcclient.NewWithTimeout(cfg.Ledger.URL, cfg.Ledger.Timeout)
	client.SetProjectID(cfg.Ledger.ProjectID)
	return rpcclient.NewLedger(client)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, defaultDeps())
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, d deps) int {
	klog.Output = d.stderr
	r := &runner{deps: d}
	err := r.app().RunContext(ctx, args)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(d.stderr, "Error: %v\n", err)
	if errors.Is(err, config.ErrConfiguration) {
		return exitUsage
	}
	return exitError
}

// usageError marks flag and argument mistakes as configuration errors.
func usageError(_ *cli.Context, err error, _ bool) error {
	return fmt.Errorf("%w: %v", config.ErrConfiguration, err)
}

func (r *runner) app() *cli.App {
	return &cli.App{
		Name:            "vesting",
		Usage:           "lock funds until a deadline and unlock them afterwards",
		Writer:          r.stdout,
		ErrWriter:       r.stderr,
		HideHelpCommand: true,
		OnUsageError:    usageError,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: config.DefaultConfigFile, Usage: "config file"},
			&cli.StringFlag{Name: "env-file", Value: config.DefaultEnvFile, Usage: "dotenv file holding " + config.EnvProjectID},
			&cli.StringFlag{Name: "network", Usage: "mainnet or testnet"},
			&cli.StringFlag{Name: "ledger-url", Usage: "ledger node JSON-RPC endpoint"},
			&cli.StringFlag{Name: "keyfile", Usage: "private key artifact"},
			&cli.StringFlag{Name: "addrfile", Usage: "address artifact"},
			&cli.StringFlag{Name: "blueprint", Usage: "compiled validator blueprint (plutus.json)"},
			&cli.Uint64Flag{Name: "amount", Usage: "lovelace to lock"},
			&cli.StringFlag{Name: "deadline", Usage: "unlock deadline, POSIX ms or RFC 3339"},
			&cli.BoolFlag{Name: "check-deadline", Usage: "refuse to unlock before the deadline"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error or disabled (default warn)"},
			&cli.BoolFlag{Name: "log-json", Usage: "log as JSON"},
		},
		Before: r.setup,
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				return fmt.Errorf("%w: unknown command %q", config.ErrConfiguration, c.Args().First())
			}
			return cli.ShowAppHelp(c)
		},
		Commands: []*cli.Command{
			{
				Name:         "generate",
				Usage:        "create a signing identity (me.sk, me.addr)",
				OnUsageError: usageError,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite existing artifacts"},
					&cli.BoolFlag{Name: "encrypt", Usage: "encrypt the private key with a password"},
				},
				Action: r.generate,
			},
			{
				Name:         "lock",
				Usage:        "lock the configured amount at the validator",
				OnUsageError: usageError,
				Action:       r.lock,
			},
			{
				Name:         "unlock",
				Usage:        "spend a locked output back to the identity",
				ArgsUsage:    "<txid>",
				OnUsageError: usageError,
				Action:       r.unlock,
			},
			{
				Name:         "address",
				Usage:        "print the identity address",
				OnUsageError: usageError,
				Action:       r.address,
			},
			{
				Name:         "balance",
				Usage:        "show available and locked funds",
				OnUsageError: usageError,
				Action:       r.balance,
			},
		},
	}
}
