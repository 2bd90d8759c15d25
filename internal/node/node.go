// Package node assembles a ledger node: storage, the devnet ledger, startup
// funding and the JSON-RPC server. It can be embedded in any binary.
package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Klingon-tech/klingnet-vesting/config"
	"github.com/Klingon-tech/klingnet-vesting/internal/ledger/devnet"
	klog "github.com/Klingon-tech/klingnet-vesting/internal/log"
	"github.com/Klingon-tech/klingnet-vesting/internal/rpc"
	"github.com/Klingon-tech/klingnet-vesting/internal/storage"
	"github.com/rs/zerolog"
)

// Node is a fully-initialized ledger node.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	db     storage.DB
	ledger *devnet.Ledger

	rpcServer *rpc.Server
}

// New creates and initializes a new Node. It opens storage, builds the
// ledger and pays the configured startup funding, but does NOT listen.
// Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	network, err := cfg.Network.Ledger()
	if err != nil {
		return nil, err
	}
	funding, err := config.ParseFunding(cfg.Devnet.Fund)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}

	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" && cfg.Devnet.Storage != "memory" {
		logsDir := expandHome(cfg.LogsDir())
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "vestingd.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	// ── 2. Open storage ─────────────────────────────────────────────
	db, where, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}
	klog.Storage.Info().Str("path", where).Msg("Database opened")

	// ── 3. Ledger ───────────────────────────────────────────────────
	l := devnet.New(db, network, devnet.WithLogger(klog.Ledger))

	// ── 4. Startup funding (fresh ledgers only) ─────────────────────
	if cfg.Devnet.Reset {
		if err := l.Reset(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}
	info, err := l.Info(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if info.UTXOs == 0 {
		for _, f := range funding {
			if f.Address.Network != network {
				db.Close()
				return nil, fmt.Errorf("%w: devnet.fund address %s is not on %s", config.ErrConfiguration, f.Address, network)
			}
			op, err := l.Fund(context.Background(), f.Address, f.Lovelace)
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("fund %s: %w", f.Address, err)
			}
			logger.Info().
				Str("address", f.Address.String()).
				Uint64("lovelace", f.Lovelace).
				Str("outpoint", op.String()).
				Msg("Startup funding")
		}
	} else if len(funding) > 0 {
		logger.Info().Int("utxos", info.UTXOs).Msg("Ledger not empty, skipping startup funding")
	}

	// ── 5. RPC server ───────────────────────────────────────────────
	srv := rpc.New(cfg.RPC.ListenAddr(), l, cfg.RPC)

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("storage", cfg.Devnet.Storage).
		Int("utxos", info.UTXOs).
		Bool("credentials", len(cfg.RPC.ProjectIDs) > 0).
		Msg("Vesting ledger node initialized")

	return &Node{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		ledger:    l,
		rpcServer: srv,
	}, nil
}

// Start binds the RPC listener.
func (n *Node) Start() error {
	if err := n.rpcServer.Start(); err != nil {
		return err
	}
	n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server listening")
	return nil
}

// Stop shuts down the RPC server and closes storage.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}
	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the bound RPC address.
func (n *Node) RPCAddr() string {
	return n.rpcServer.Addr()
}

// Ledger returns the ledger the node serves.
func (n *Node) Ledger() *devnet.Ledger {
	return n.ledger
}
