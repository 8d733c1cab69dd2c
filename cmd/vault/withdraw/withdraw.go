package withdraw

import (
	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/Overclock-Validator/vault/pkg/vault"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the whole balance of the owner's vault",
	Args:  cobra.NoArgs,
	Run:   run,
}

var keypairPath string

func init() {
	Cmd.Flags().StringVarP(&keypairPath, "keypair", "k", "id.json", "Owner keypair file")
}

func run(c *cobra.Command, args []string) {
	owner, err := ledger.LoadKeypair(keypairPath)
	if err != nil {
		klog.Exitf("failed to load keypair: %s", err)
	}

	err = ledger.Run(false, func(l *ledger.Ledger) error {
		receipt, err := l.Submit(c.Context(), owner, vault.Withdraw{})
		if err != nil {
			return err
		}
		klog.Infof("withdrew %d lamports from %s (sig %s), owner balance %d",
			receipt.Result.Moved, receipt.Vault, receipt.Signature, receipt.Result.OwnerLamports)
		return nil
	})
	if err != nil {
		klog.Exitf("withdraw failed: %s", err)
	}
}
