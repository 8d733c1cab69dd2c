package airdrop

import (
	"strconv"

	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "airdrop <address> <lamports>",
	Short: "Credit lamports to an address in the local ledger",
	Args:  cobra.ExactArgs(2),
	Run:   run,
}

func run(c *cobra.Command, args []string) {
	addr, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		klog.Exitf("invalid address %q: %s", args[0], err)
	}
	lamports, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		klog.Exitf("invalid lamports %q: %s", args[1], err)
	}

	err = ledger.Run(false, func(l *ledger.Ledger) error {
		_, err := l.Bank.Airdrop(c.Context(), addr, lamports)
		return err
	})
	if err != nil {
		klog.Exitf("airdrop failed: %s", err)
	}
}
