package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-vesting/config"
	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-vesting/internal/log"
	"github.com/Klingon-tech/klingnet-vesting/internal/vesting"
	"github.com/Klingon-tech/klingnet-vesting/internal/wallet"
	"github.com/Klingon-tech/klingnet-vesting/pkg/script"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
	"github.com/urfave/cli/v2"
)

// runner holds the configuration resolved for one invocation.
type runner struct {
	deps
	cfg     *config.Config
	network types.Network
}

// setup resolves configuration: defaults, then the config file, then flags.
func (r *runner) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), config.NetworkType(c.String("network")))
	if err != nil {
		return err
	}
	if c.IsSet("ledger-url") {
		cfg.Ledger.URL = c.String("ledger-url")
	}
	if c.IsSet("keyfile") {
		cfg.KeyFile = c.String("keyfile")
	}
	if c.IsSet("addrfile") {
		cfg.AddrFile = c.String("addrfile")
	}
	if c.IsSet("blueprint") {
		cfg.Script.Blueprint = c.String("blueprint")
	}
	if c.IsSet("amount") {
		cfg.Vesting.Amount = c.Uint64("amount")
	}
	if c.IsSet("deadline") {
		ms, err := config.ParseDeadline(c.String("deadline"))
		if err != nil {
			return fmt.Errorf("%w: --deadline: %v", config.ErrConfiguration, err)
		}
		cfg.Vesting.Deadline = ms
	}
	if c.IsSet("check-deadline") {
		cfg.Vesting.CheckDeadline = c.Bool("check-deadline")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-json") {
		cfg.Log.JSON = c.Bool("log-json")
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if r.network, err = cfg.Network.Ledger(); err != nil {
		return err
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return fmt.Errorf("%w: log: %v", config.ErrConfiguration, err)
	}
	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

func (r *runner) artifacts() wallet.Artifacts {
	return wallet.Artifacts{KeyPath: r.cfg.KeyFile, AddrPath: r.cfg.AddrFile}
}

func (r *runner) params() vesting.Params {
	return vesting.Params{
		Network:        r.network,
		LockAmount:     r.cfg.Vesting.Amount,
		DeadlineMillis: r.cfg.Vesting.Deadline,
	}
}

// connect checks the credential and dials the ledger. Nothing touches the
// network before the credential is known to be present.
func (r *runner) connect() (ledger.Service, error) {
	if err := config.RequireCredential(r.cfg); err != nil {
		return nil, err
	}
	return r.dial(r.cfg), nil
}

func (r *runner) identity() (*wallet.Identity, error) {
	return r.artifacts().Load(r.network, func() ([]byte, error) {
		return r.password("Password: ")
	})
}

// validator loads the blueprint and locates the validator on the network.
func (r *runner) validator() (*script.Reference, error) {
	bp, err := script.LoadBlueprint(r.cfg.Script.Blueprint)
	if err != nil {
		return nil, err
	}
	v, err := bp.Validator(r.cfg.Script.Validator)
	if err != nil {
		return nil, err
	}
	code, err := v.Code()
	if err != nil {
		return nil, err
	}
	version, err := script.ParseVersion(r.cfg.Script.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return script.Locate(r.network, version, code)
}

func (r *runner) generate(c *cli.Context) error {
	a := r.artifacts()
	if a.Exists() && !c.Bool("force") {
		return fmt.Errorf("%w: %s or %s already exists (use --force to replace)", wallet.ErrArtifact, a.KeyPath, a.AddrPath)
	}

	var password []byte
	if c.Bool("encrypt") {
		pw, err := r.password("New password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := r.password("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if len(pw) == 0 || !bytes.Equal(pw, confirm) {
			return errors.New("passwords are empty or do not match")
		}
		password = pw
	}

	id, err := wallet.Generate(r.network)
	if err != nil {
		return err
	}
	if err := a.Save(id, password, wallet.DefaultParams()); err != nil {
		return err
	}
	klog.Wallet.Info().Str("keyfile", a.KeyPath).Str("addrfile", a.AddrPath).Msg("Identity written")
	fmt.Fprintln(r.stdout, id.Address)
	return nil
}

func (r *runner) address(_ *cli.Context) error {
	addr, err := r.artifacts().LoadAddress()
	if err != nil {
		return err
	}
	fmt.Fprintln(r.stdout, addr)
	return nil
}

func (r *runner) lock(c *cli.Context) error {
	l, err := r.connect()
	if err != nil {
		return err
	}
	id, err := r.identity()
	if err != nil {
		return err
	}
	ref, err := r.validator()
	if err != nil {
		return err
	}

	p := r.params()
	txID, err := vesting.NewLocker(l, p, klog.Vesting).Lock(c.Context, id, ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "Locked %s ADA at %s\n", formatAda(p.LockAmount), ref.Address)
	fmt.Fprintf(r.stdout, "Deadline: %s\n", p.Deadline().UTC().Format(http.TimeFormat))
	fmt.Fprintf(r.stdout, "Transaction: %s\n", txID)
	return nil
}

func (r *runner) unlock(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("%w: usage: vesting unlock <txid>", config.ErrConfiguration)
	}
	lockTx, err := types.HexToHash(c.Args().First())
	if err != nil {
		return fmt.Errorf("%w: txid: %v", config.ErrConfiguration, err)
	}

	l, err := r.connect()
	if err != nil {
		return err
	}
	id, err := r.identity()
	if err != nil {
		return err
	}
	ref, err := r.validator()
	if err != nil {
		return err
	}

	u := vesting.NewUnlocker(l, r.params(), klog.Vesting,
		vesting.WithClock(r.now),
		vesting.WithDeadlineCheck(r.cfg.Vesting.CheckDeadline))
	res, err := u.Unlock(c.Context, id, ref, lockTx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "Released %s ADA\n", formatAda(res.Released))
	fmt.Fprintf(r.stdout, "Transaction: %s\n", res.TxID)
	return nil
}

func (r *runner) balance(c *cli.Context) error {
	l, err := r.connect()
	if err != nil {
		return err
	}
	addr, err := r.artifacts().LoadAddress()
	if err != nil {
		return err
	}
	utxos, err := l.UTXOs(c.Context, addr)
	if err != nil {
		return err
	}

	var available, locked uint64
	for _, u := range utxos {
		if u.Output.Address.IsScript() {
			locked += u.Lovelace()
		} else {
			available += u.Lovelace()
		}
	}
	fmt.Fprintf(r.stdout, "Address:   %s\n", addr)
	fmt.Fprintf(r.stdout, "Available: %s ADA\n", formatAda(available))
	fmt.Fprintf(r.stdout, "Locked:    %s ADA\n", formatAda(locked))
	return nil
}

// formatAda renders lovelace as ADA without trailing zeros.
func formatAda(lovelace uint64) string {
	whole := lovelace / types.LovelacePerAda
	frac := lovelace % types.LovelacePerAda
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%06d", whole, frac), "0")
}
