package deposit

import (
	"strconv"

	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/Overclock-Validator/vault/pkg/vault"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "deposit <lamports>",
	Short: "Deposit lamports into the owner's vault",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

var keypairPath string

func init() {
	Cmd.Flags().StringVarP(&keypairPath, "keypair", "k", "id.json", "Owner keypair file")
}

func run(c *cobra.Command, args []string) {
	amount, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		klog.Exitf("invalid amount %q: %s", args[0], err)
	}

	owner, err := ledger.LoadKeypair(keypairPath)
	if err != nil {
		klog.Exitf("failed to load keypair: %s", err)
	}

	err = ledger.Run(false, func(l *ledger.Ledger) error {
		receipt, err := l.Submit(c.Context(), owner, vault.Deposit{Amount: amount})
		if err != nil {
			return err
		}
		klog.Infof("deposited %d lamports into %s (sig %s), vault balance %d",
			receipt.Result.Moved, receipt.Vault, receipt.Signature, receipt.Result.VaultLamports)
		return nil
	})
	if err != nil {
		klog.Exitf("deposit failed: %s", err)
	}
}
