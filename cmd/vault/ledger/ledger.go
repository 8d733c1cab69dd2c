// Package ledger opens the bank shared by the vault subcommands.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Overclock-Validator/vault/pkg/accounts"
	"github.com/Overclock-Validator/vault/pkg/bank"
	"github.com/Overclock-Validator/vault/pkg/config"
	"github.com/Overclock-Validator/vault/pkg/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	configPath  string
	dbPath      string
	metricsAddr string
)

// AddFlags registers the flags every ledger-backed command understands.
func AddFlags(c *cobra.Command) {
	c.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path of YAML config file")
	c.PersistentFlags().StringVar(&dbPath, "db", "", "Path of accounts database (overrides config)")
	c.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
}

// LoadConfig reads the config file and applies flag overrides.
func LoadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.AccountsDbPath = dbPath
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	return cfg, nil
}

type Ledger struct {
	Bank   *bank.Bank
	Config config.Config

	store  accounts.Accounts
	closer func() error
	server *http.Server
}

// Open opens the persistent accounts db named by the config. With inMemory
// set, accounts live in memory and are lost on exit.
func Open(inMemory bool) (*Ledger, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	bankCfg, err := cfg.BankConfig()
	if err != nil {
		return nil, err
	}

	l := &Ledger{Config: cfg, closer: func() error { return nil }}

	if inMemory {
		l.store = accounts.NewMemAccounts()
	} else {
		db, err := accounts.OpenPersistentAccountsDb(cfg.AccountsDbPath)
		if err != nil {
			return nil, err
		}
		l.store = db
		l.closer = db.Close
	}

	reg := prometheus.NewRegistry()
	l.Bank, err = bank.New(l.store, bankCfg, reg)
	if err != nil {
		_ = l.closer()
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		l.server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				klog.Errorf("metrics server: %s", err)
			}
		}()
		klog.Infof("serving metrics on %s", cfg.MetricsAddr)
	}

	return l, nil
}

func (l *Ledger) Close() {
	if l.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.server.Shutdown(ctx)
	}
	if err := l.closer(); err != nil {
		klog.Errorf("failed to close accounts db: %s", err)
	}
}

// Run opens the ledger, calls fn and closes the ledger again before
// returning fn's error, so callers can exit non-zero without leaking the db.
func Run(inMemory bool, fn func(l *Ledger) error) error {
	l, err := Open(inMemory)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer l.Close()

	return fn(l)
}

// LoadKeypair reads a solana-keygen JSON keypair file.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("no keypair file given")
	}
	return solana.PrivateKeyFromSolanaKeygenFile(path)
}

// WriteKeypair writes key in the solana-keygen JSON format.
func WriteKeypair(path string, key solana.PrivateKey, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	out, err := json.Marshal(lo.Map([]byte(key), func(b byte, _ int) int { return int(b) }))
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// Submit signs instr with owner's key and applies it against owner's vault.
func (l *Ledger) Submit(ctx context.Context, owner solana.PrivateKey, instr vault.Instruction) (*bank.Receipt, error) {
	vaultAddr, _, err := l.Bank.VaultAddress(owner.PublicKey())
	if err != nil {
		return nil, err
	}

	tx, err := bank.NewTransaction(l.Bank.ProgramID(), owner.PublicKey(), vaultAddr, instr)
	if err != nil {
		return nil, err
	}
	if err = tx.Sign(owner); err != nil {
		return nil, err
	}

	receipt, err := l.Bank.Process(ctx, tx)
	if err != nil {
		if code, ok := vault.CodeOf(err); ok {
			return nil, fmt.Errorf("%s rejected with custom program error 0x%x: %w", instr, code, err)
		}
		return nil, err
	}
	return receipt, nil
}
