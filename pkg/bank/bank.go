// Package bank hosts the vault program: it verifies signed requests, charges
// fees, serializes access per account and commits each applied request to the
// account store as one unit.
package bank

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Overclock-Validator/vault/pkg/accounts"
	"github.com/Overclock-Validator/vault/pkg/cu"
	"github.com/Overclock-Validator/vault/pkg/fees"
	"github.com/Overclock-Validator/vault/pkg/rent"
	"github.com/Overclock-Validator/vault/pkg/safemath"
	"github.com/Overclock-Validator/vault/pkg/util"
	"github.com/Overclock-Validator/vault/pkg/vault"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"
)

var SysvarOwnerAddr = solana.MustPublicKeyFromBase58("Sysvar1111111111111111111111111111111111111")

var (
	ErrAirdropOverflow     = errors.New("ErrAirdropOverflow")
	ErrAirdropBelowReserve = errors.New("ErrAirdropBelowReserve")
)

type Config struct {
	ProgramID    solana.PublicKey
	Rent         rent.Rent
	Fees         fees.FeeSchedule
	FeeCollector solana.PublicKey
}

func DefaultConfig() Config {
	return Config{
		ProgramID: vault.DefaultProgramID,
		Rent:      rent.DefaultRent(),
		Fees: fees.FeeSchedule{
			LamportsPerSignature: fees.DefaultLamportsPerSignature,
			ComputeUnitLimit:     cu.DefaultComputeUnitLimit,
		},
	}
}

type Bank struct {
	accts         accounts.Accounts
	cfg           Config
	program       *vault.Program
	locks         *lockTable
	bumps         cmap.ConcurrentMap[string, uint8]
	collectedFees atomic.Uint64
	metrics       *Metrics
}

// Receipt describes a committed request.
type Receipt struct {
	Signature    solana.Signature
	Owner        solana.PublicKey
	Vault        solana.PublicKey
	Result       *vault.Result
	ComputeUnits uint64
	VaultHash    []byte
}

// New creates a bank over accts. The rent sysvar is written from cfg if the
// store does not hold one yet; metrics are registered on reg when non-nil.
func New(accts accounts.Accounts, cfg Config, reg prometheus.Registerer) (*Bank, error) {
	b := &Bank{
		accts:   accts,
		cfg:     cfg,
		program: vault.NewProgram(cfg.ProgramID),
		locks:   newLockTable(),
		bumps:   cmap.New[uint8](),
		metrics: NewMetrics(reg),
	}

	rentAcct, err := accts.GetAccount(rent.SysvarRentAddr)
	if err != nil {
		return nil, err
	}
	if rentAcct.IsDeallocated() {
		rentAcct.Owner = SysvarOwnerAddr
		rentAcct.Data = cfg.Rent.Marshal()
		rentAcct.Lamports = cfg.Rent.MinimumBalance(uint64(len(rentAcct.Data)))
		if err = accts.SetAccounts(rentAcct); err != nil {
			return nil, fmt.Errorf("failed to write rent sysvar: %w", err)
		}
	}

	return b, nil
}

func (b *Bank) Metrics() *Metrics {
	return b.metrics
}

func (b *Bank) ProgramID() solana.PublicKey {
	return b.cfg.ProgramID
}

func (b *Bank) readRent() (*rent.Rent, error) {
	rentAcct, err := b.accts.GetAccount(rent.SysvarRentAddr)
	if err != nil {
		return nil, err
	}

	var r rent.Rent
	if err = r.UnmarshalWithDecoder(bin.NewBinDecoder(rentAcct.Data)); err != nil {
		return nil, fmt.Errorf("failed to decode rent sysvar: %w", err)
	}
	return &r, nil
}

// VaultAddress returns the vault of owner, remembering the bump for later
// requests.
func (b *Bank) VaultAddress(owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := vault.VaultAddress(b.cfg.ProgramID, owner)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	b.bumps.Set(owner.String(), bump)
	return addr, bump, nil
}

func (b *Bank) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	acct, err := b.accts.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// Airdrop credits lamports to addr out of thin air. Test and local use only.
func (b *Bank) Airdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	unlock := b.locks.lock(addr)
	defer unlock()

	acct, err := b.accts.GetAccount(addr)
	if err != nil {
		return 0, err
	}

	r, err := b.readRent()
	if err != nil {
		return 0, err
	}

	postLamports, err := safemath.CheckedAddU64(acct.Lamports, lamports)
	if err != nil {
		return 0, ErrAirdropOverflow
	}

	preState := rent.NewRentStateInfo(r, acct.Lamports, uint64(len(acct.Data)))
	postState := rent.NewRentStateInfo(r, postLamports, uint64(len(acct.Data)))
	if rent.CheckRentStateTransition(preState, postState) != nil {
		klog.Errorf("airdrop of %d lamports would leave %s with %d, below reserve %d",
			lamports, addr, postLamports, r.MinimumBalance(uint64(len(acct.Data))))
		return 0, ErrAirdropBelowReserve
	}
	acct.Lamports = postLamports

	if err = b.accts.SetAccounts(acct); err != nil {
		return 0, err
	}

	b.metrics.Airdrops.Add(float64(lamports))
	klog.Infof("airdropped %d lamports to %s, balance %d", lamports, addr, acct.Lamports)
	return acct.Lamports, nil
}

// Process verifies and applies one signed request. On any error no account
// is modified and no fee is charged.
func (b *Bank) Process(ctx context.Context, tx *Transaction) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	receipt, instrName, err := b.process(tx)

	outcome := "ok"
	if err != nil {
		var vaultErr *vault.VaultError
		if errors.As(err, &vaultErr) {
			outcome = vaultErr.Name
		} else {
			outcome = "error"
		}
	}
	b.metrics.Requests.WithLabelValues(instrName, outcome).Inc()

	if err != nil {
		return nil, err
	}

	b.metrics.LamportsMoved.WithLabelValues(instrName).Add(float64(receipt.Result.Moved))
	b.metrics.FeesCollected.Add(float64(receipt.Result.Fee))
	return receipt, nil
}

func instructionName(instr vault.Instruction) string {
	switch instr.(type) {
	case vault.Deposit:
		return "deposit"
	case vault.Withdraw:
		return "withdraw"
	}
	return "unknown"
}

func (b *Bank) process(tx *Transaction) (*Receipt, string, error) {
	msg := &tx.Message

	if msg.ProgramID != b.cfg.ProgramID {
		klog.Errorf("tx for program %s, expected %s", msg.ProgramID, b.cfg.ProgramID)
		return nil, "unknown", ErrWrongProgram
	}

	instr, err := vault.DecodeInstruction(msg.Data)
	if err != nil {
		return nil, "unknown", err
	}
	instrName := instructionName(instr)

	signers, err := tx.VerifySignatures()
	if err != nil {
		klog.Errorf("tx signature verification failed: %s", err)
		return nil, instrName, err
	}

	fee, err := b.cfg.Fees.CalculateFee(uint64(len(tx.Signatures)))
	if err != nil {
		return nil, instrName, err
	}

	r, err := b.readRent()
	if err != nil {
		return nil, instrName, err
	}

	unlock := b.locks.lock(msg.Owner, msg.Vault)
	defer unlock()

	owner, err := b.accts.GetAccount(msg.Owner)
	if err != nil {
		return nil, instrName, err
	}
	vaultAcct, err := b.accts.GetAccount(msg.Vault)
	if err != nil {
		return nil, instrName, err
	}

	computeUnitLimit := uint64(b.cfg.Fees.ComputeUnitLimit)
	if computeUnitLimit == 0 {
		computeUnitLimit = cu.DefaultComputeUnitLimit
	}
	computeMeter := cu.NewComputeMeter(computeUnitLimit)

	ic := &vault.InvokeCtx{
		Signers:      signers,
		Owner:        owner,
		Vault:        vaultAcct,
		Rent:         r,
		Fee:          fee,
		ComputeMeter: &computeMeter,
	}
	if bump, ok := b.bumps.Get(msg.Owner.String()); ok {
		ic.KnownBump = &bump
	}

	result, err := b.program.Apply(ic, instr)
	if err != nil {
		if computeMeter.Exceeded() {
			klog.Errorf("%s exhausted its compute budget of %d CUs", instr, computeMeter.Limit())
		}
		return nil, instrName, err
	}

	if err = b.accts.SetAccounts(owner, vaultAcct); err != nil {
		return nil, instrName, fmt.Errorf("failed to commit vault request: %w", err)
	}

	if klog.V(3).Enabled() {
		klog.Infof("post-state %s", util.PrettyPrintAcct(owner))
		klog.Infof("post-state %s", util.PrettyPrintAcct(vaultAcct))
	}

	b.bumps.Set(msg.Owner.String(), result.Bump)
	b.collectedFees.Add(fee)

	klog.Infof("%s committed: owner %s balance %d, vault %s balance %d, fee %d, %d CUs (%d of %d left)",
		instr, msg.Owner, owner.Lamports, msg.Vault, vaultAcct.Lamports, fee, computeMeter.Used(), computeMeter.Remaining(), computeMeter.Limit())

	return &Receipt{
		Signature:    tx.Signatures[0],
		Owner:        msg.Owner,
		Vault:        msg.Vault,
		Result:       result,
		ComputeUnits: computeMeter.Used(),
		VaultHash:    util.AcctHash(vaultAcct),
	}, instrName, nil
}

// CollectedFees returns fees charged since the last distribution.
func (b *Bank) CollectedFees() uint64 {
	return b.collectedFees.Load()
}

// DistributeFees burns the configured share of collected fees and credits
// the rest to the fee collector. With no collector configured everything is
// burned.
func (b *Bank) DistributeFees(ctx context.Context) (toCollector uint64, burned uint64, err error) {
	if err = ctx.Err(); err != nil {
		return 0, 0, err
	}

	total := b.collectedFees.Swap(0)
	if total == 0 {
		return 0, 0, nil
	}

	r, err := b.readRent()
	if err != nil {
		b.collectedFees.Add(total)
		return 0, 0, err
	}

	toCollector, burned = fees.SplitFees(total, r.BurnPercent)
	if b.cfg.FeeCollector.IsZero() {
		return 0, total, nil
	}

	unlock := b.locks.lock(b.cfg.FeeCollector)
	defer unlock()

	collector, err := b.accts.GetAccount(b.cfg.FeeCollector)
	if err != nil {
		b.collectedFees.Add(total)
		return 0, 0, err
	}

	collector.Lamports, err = safemath.CheckedAddU64(collector.Lamports, toCollector)
	if err != nil {
		panic("overflow when adding fees to fee collector balance")
	}

	if err = b.accts.SetAccounts(collector); err != nil {
		b.collectedFees.Add(total)
		return 0, 0, err
	}

	klog.Infof("distributed fees: %d to collector %s (post-balance %d), %d burned", toCollector, b.cfg.FeeCollector, collector.Lamports, burned)
	return toCollector, burned, nil
}
