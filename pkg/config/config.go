// Package config loads the vault node configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Overclock-Validator/vault/pkg/bank"
	"github.com/Overclock-Validator/vault/pkg/cu"
	"github.com/Overclock-Validator/vault/pkg/fees"
	"github.com/Overclock-Validator/vault/pkg/rent"
	"github.com/Overclock-Validator/vault/pkg/vault"
	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

const (
	defaultAccountsDbPath = "vault-accounts"
	defaultMetricsAddr    = ""
)

var (
	ErrInvalidProgramID    = errors.New("ErrInvalidProgramID")
	ErrInvalidFeeCollector = errors.New("ErrInvalidFeeCollector")
	ErrInvalidRent         = errors.New("ErrInvalidRent")
)

type RentConfig struct {
	LamportsPerByteYear uint64  `yaml:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `yaml:"exemption_threshold"`
	BurnPercent         uint8   `yaml:"burn_percent"`
}

type FeeConfig struct {
	LamportsPerSignature uint64 `yaml:"lamports_per_signature"`
	ComputeUnitLimit     uint32 `yaml:"compute_unit_limit"`
	ComputeUnitPrice     uint64 `yaml:"compute_unit_price"`
	Collector            string `yaml:"collector"`
}

// Config is the on-disk configuration. Keys are base58 strings.
type Config struct {
	ProgramID      string     `yaml:"program_id"`
	AccountsDbPath string     `yaml:"accounts_db"`
	MetricsAddr    string     `yaml:"metrics_addr"`
	Rent           RentConfig `yaml:"rent"`
	Fees           FeeConfig  `yaml:"fees"`
}

func Default() Config {
	r := rent.DefaultRent()
	return Config{
		ProgramID:      vault.DefaultProgramID.String(),
		AccountsDbPath: defaultAccountsDbPath,
		MetricsAddr:    defaultMetricsAddr,
		Rent: RentConfig{
			LamportsPerByteYear: r.LamportsPerByteYear,
			ExemptionThreshold:  r.ExemptionThreshold,
			BurnPercent:         r.BurnPercent,
		},
		Fees: FeeConfig{
			LamportsPerSignature: fees.DefaultLamportsPerSignature,
			ComputeUnitLimit:     cu.DefaultComputeUnitLimit,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if _, err = cfg.BankConfig(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BankConfig validates c and converts it for bank.New.
func (c Config) BankConfig() (bank.Config, error) {
	programID, err := solana.PublicKeyFromBase58(c.ProgramID)
	if err != nil {
		return bank.Config{}, fmt.Errorf("%w: %s", ErrInvalidProgramID, err)
	}

	var collector solana.PublicKey
	if c.Fees.Collector != "" {
		collector, err = solana.PublicKeyFromBase58(c.Fees.Collector)
		if err != nil {
			return bank.Config{}, fmt.Errorf("%w: %s", ErrInvalidFeeCollector, err)
		}
	}

	if c.Rent.ExemptionThreshold < 0 || c.Rent.BurnPercent > 100 {
		return bank.Config{}, fmt.Errorf("%w: threshold %f, burn percent %d", ErrInvalidRent, c.Rent.ExemptionThreshold, c.Rent.BurnPercent)
	}

	computeUnitLimit := c.Fees.ComputeUnitLimit
	if computeUnitLimit > cu.MaxComputeUnitLimit {
		computeUnitLimit = cu.MaxComputeUnitLimit
	}

	return bank.Config{
		ProgramID: programID,
		Rent: rent.Rent{
			LamportsPerByteYear: c.Rent.LamportsPerByteYear,
			ExemptionThreshold:  c.Rent.ExemptionThreshold,
			BurnPercent:         c.Rent.BurnPercent,
		},
		Fees: fees.FeeSchedule{
			LamportsPerSignature: c.Fees.LamportsPerSignature,
			ComputeUnitLimit:     computeUnitLimit,
			ComputeUnitPrice:     c.Fees.ComputeUnitPrice,
		},
		FeeCollector: collector,
	}, nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
