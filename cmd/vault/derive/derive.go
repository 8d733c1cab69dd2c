package derive

import (
	"fmt"

	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/Overclock-Validator/vault/pkg/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "derive <owner>",
	Short: "Derive the vault address of an owner",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

var programIDStr string

func init() {
	Cmd.Flags().StringVarP(&programIDStr, "program", "p", "", "Vault program id (defaults to config)")
}

func run(c *cobra.Command, args []string) {
	owner, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		klog.Exitf("invalid owner %q: %s", args[0], err)
	}

	if programIDStr == "" {
		cfg, err := ledger.LoadConfig()
		if err != nil {
			klog.Exitf("failed to load config: %s", err)
		}
		programIDStr = cfg.ProgramID
	}
	programID, err := solana.PublicKeyFromBase58(programIDStr)
	if err != nil {
		klog.Exitf("invalid program id %q: %s", programIDStr, err)
	}

	addr, bump, err := vault.VaultAddress(programID, owner)
	if err != nil {
		klog.Exitf("failed to derive vault for %s: %s", owner, err)
	}

	fmt.Printf("%s %d\n", addr, bump)
}
