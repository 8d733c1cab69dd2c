package demo

import (
	"context"

	"github.com/Overclock-Validator/vault/cmd/vault/ledger"
	"github.com/Overclock-Validator/vault/pkg/bank"
	"github.com/Overclock-Validator/vault/pkg/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "demo",
	Short: "Run a deposit and withdraw round trip against an in-memory ledger",
	Run:   run,
}

var (
	owners  int
	workers int
)

func init() {
	Cmd.Flags().IntVarP(&owners, "owners", "n", 1, "Number of owners running the round trip concurrently")
	Cmd.Flags().IntVarP(&workers, "workers", "w", bank.DefaultBatchWorkers, "Worker pool size")
}

type demoOwner struct {
	key   solana.PrivateKey
	vault solana.PublicKey
}

func run(c *cobra.Command, args []string) {
	ctx := c.Context()

	l, err := ledger.Open(true)
	if err != nil {
		klog.Exitf("failed to open ledger: %s", err)
	}
	defer l.Close()

	if owners < 1 {
		owners = 1
	}

	users := make([]demoOwner, owners)
	for i := range users {
		users[i].key, err = solana.NewRandomPrivateKey()
		if err != nil {
			klog.Exitf("failed to generate key: %s", err)
		}
		if _, err = l.Bank.Airdrop(ctx, users[i].key.PublicKey(), 3*solana.LAMPORTS_PER_SOL); err != nil {
			klog.Exitf("airdrop failed: %s", err)
		}
		users[i].vault, _, err = l.Bank.VaultAddress(users[i].key.PublicKey())
		if err != nil {
			klog.Exitf("failed to derive vault: %s", err)
		}
	}

	logBalances(ctx, l, users, "initial")

	step(ctx, l, users, vault.Deposit{Amount: solana.LAMPORTS_PER_SOL / 2})
	logBalances(ctx, l, users, "after deposit")

	step(ctx, l, users, vault.Withdraw{})
	logBalances(ctx, l, users, "after withdraw")

	toCollector, burned, err := l.Bank.DistributeFees(ctx)
	if err != nil {
		klog.Exitf("failed to distribute fees: %s", err)
	}
	klog.Infof("fees: %d to collector, %d burned", toCollector, burned)
}

func step(ctx context.Context, l *ledger.Ledger, users []demoOwner, instr vault.Instruction) {
	txs := make([]*bank.Transaction, len(users))
	for i, u := range users {
		tx, err := bank.NewTransaction(l.Bank.ProgramID(), u.key.PublicKey(), u.vault, instr)
		if err != nil {
			klog.Exitf("failed to build %s: %s", instr, err)
		}
		if err = tx.Sign(u.key); err != nil {
			klog.Exitf("failed to sign %s: %s", instr, err)
		}
		txs[i] = tx
	}

	for i, res := range l.Bank.ProcessBatch(ctx, txs, workers) {
		if res.Err != nil {
			klog.Errorf("%s for %s failed: %s", instr, users[i].key.PublicKey(), res.Err)
			continue
		}
		klog.V(2).Infof("%s for %s: %d CUs, vault hash %x", instr, users[i].key.PublicKey(), res.Receipt.ComputeUnits, res.Receipt.VaultHash)
	}
}

func logBalances(ctx context.Context, l *ledger.Ledger, users []demoOwner, label string) {
	for _, u := range users {
		ownerBal, err := l.Bank.Balance(ctx, u.key.PublicKey())
		if err != nil {
			klog.Exitf("failed to read balance: %s", err)
		}
		vaultBal, err := l.Bank.Balance(ctx, u.vault)
		if err != nil {
			klog.Exitf("failed to read balance: %s", err)
		}
		klog.Infof("%s: owner %s %d lamports, vault %s %d lamports", label, u.key.PublicKey(), ownerBal, u.vault, vaultBal)
	}
}
