package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/Overclock-Validator/vault/cmd/vault/airdrop"
	"github.com/Overclock-Validator/vault/cmd/vault/balance"
	"github.com/Overclock-Validator/vault/cmd/vault/demo"
	"github.com/Overclock-Validator/vault/cmd/vault/deposit"
	"github.com/Overclock-Validator/vault/cmd/vault/derive"
	"github.com/Overclock-Validator/vault/cmd/vault/errcode"
	"github.com/Overclock-Validator/vault/cmd/vault/keygen"
	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/Overclock-Validator/vault/cmd/vault/showconfig"
	"github.com/Overclock-Validator/vault/cmd/vault/withdraw"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "vault",
	Short: "Per-owner lamport vault",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)
	ledger.AddFlags(&cmd)

	cmd.AddCommand(
		&airdrop.Cmd,
		&balance.Cmd,
		&demo.Cmd,
		&deposit.Cmd,
		&derive.Cmd,
		&errcode.Cmd,
		&keygen.Cmd,
		&showconfig.Cmd,
		&withdraw.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
