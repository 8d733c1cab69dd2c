package keygen

import (
	"fmt"

	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "keygen",
	Short: "Generate a new owner keypair file",
	Run:   run,
}

var (
	outfile string
	force   bool
)

func init() {
	Cmd.Flags().StringVarP(&outfile, "outfile", "o", "id.json", "Path of keypair file to write")
	Cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing keypair file")
}

func run(c *cobra.Command, args []string) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		klog.Exitf("failed to generate key: %s", err)
	}

	if err = ledger.WriteKeypair(outfile, key, force); err != nil {
		klog.Exitf("failed to write keypair: %s", err)
	}

	klog.Infof("wrote keypair to %s", outfile)
	fmt.Println(key.PublicKey())
}
