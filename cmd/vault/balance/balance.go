package balance

import (
	"fmt"

	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "balance <address>",
	Short: "Print the lamport balance of an address, and of its vault",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

func run(c *cobra.Command, args []string) {
	addr, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		klog.Exitf("invalid address %q: %s", args[0], err)
	}

	err = ledger.Run(false, func(l *ledger.Ledger) error {
		bal, err := l.Bank.Balance(c.Context(), addr)
		if err != nil {
			return err
		}
		fmt.Printf("%s %d\n", addr, bal)

		vaultAddr, _, err := l.Bank.VaultAddress(addr)
		if err != nil {
			// no vault derivable for this address
			return nil
		}
		vaultBal, err := l.Bank.Balance(c.Context(), vaultAddr)
		if err != nil {
			return err
		}
		fmt.Printf("vault %s %d\n", vaultAddr, vaultBal)
		return nil
	})
	if err != nil {
		klog.Exitf("failed to read balance: %s", err)
	}
}
