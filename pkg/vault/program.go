package vault

import (
	"github.com/Overclock-Validator/vault/pkg/accounts"
	"github.com/Overclock-Validator/vault/pkg/cu"
	"github.com/Overclock-Validator/vault/pkg/rent"
	"github.com/Overclock-Validator/vault/pkg/safemath"
	pda "github.com/Overclock-Validator/vault/pkg/solana"
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

const CUVaultActionBaseUnits = 1500

type Program struct {
	ProgramID solana.PublicKey
	finder    pda.AddressFinder
}

func NewProgram(programID solana.PublicKey) *Program {
	return &Program{ProgramID: programID}
}

// InvokeCtx carries everything a single vault instruction may read or write.
// Owner and Vault are only modified when Apply succeeds.
type InvokeCtx struct {
	// Signers holds the keys whose signatures over the request verified.
	Signers []solana.PublicKey
	Owner   *accounts.Account
	Vault   *accounts.Account
	Rent    *rent.Rent
	// Fee is charged to the owner as part of the same transition.
	Fee          uint64
	ComputeMeter *cu.ComputeMeter
	// KnownBump skips the bump search when set.
	KnownBump *uint8
}

type Result struct {
	Instruction   Instruction
	PreState      State
	PostState     State
	Bump          uint8
	Moved         uint64
	Fee           uint64
	OwnerLamports uint64
	VaultLamports uint64
}

// Apply validates instr against the accounts in ic and applies it. Either both
// balances are updated or neither is.
func (p *Program) Apply(ic *InvokeCtx, instr Instruction) (*Result, error) {
	if ic.ComputeMeter != nil {
		if err := ic.ComputeMeter.Consume(CUVaultActionBaseUnits); err != nil {
			return nil, err
		}
	}

	owner, vaultAcct := ic.Owner, ic.Vault

	if !lo.Contains(ic.Signers, owner.Key) {
		klog.Errorf("VaultAction: owner %s did not sign", owner.Key)
		return nil, VaultErrUnauthorized
	}

	vaultAddr, bump, err := meteredVaultAddress(p.finder, ic.ComputeMeter, p.ProgramID, owner.Key, ic.KnownBump)
	if err != nil {
		return nil, err
	}
	if vaultAddr != vaultAcct.Key {
		klog.Errorf("VaultAction: vault %s does not match derived address %s", vaultAcct.Key, vaultAddr)
		return nil, VaultErrAddressMismatch
	}

	preState := StateOf(vaultAcct)
	postState, err := nextState(preState, instr)
	if err != nil {
		klog.Errorf("VaultAction: %s not allowed on %s vault %s", instr, preState, vaultAddr)
		return nil, err
	}

	var ownerLamports, vaultLamports, moved uint64

	switch ix := instr.(type) {
	case Deposit:
		ownerLamports, vaultLamports, err = p.deposit(ic, ix.Amount)
		moved = ix.Amount
	case Withdraw:
		moved = vaultAcct.Lamports
		ownerLamports, vaultLamports, err = p.withdraw(ic)
	}
	if err != nil {
		return nil, err
	}

	// commit
	owner.Lamports = ownerLamports
	vaultAcct.Lamports = vaultLamports
	if preState == StateEmpty && postState == StateFunded {
		allocate(vaultAcct)
	} else if postState == StateEmpty {
		deallocate(vaultAcct)
	}

	klog.V(2).Infof("VaultAction: %s on vault %s (%s -> %s), owner %d, vault %d", instr, vaultAddr, preState, postState, ownerLamports, vaultLamports)

	return &Result{
		Instruction:   instr,
		PreState:      preState,
		PostState:     postState,
		Bump:          bump,
		Moved:         moved,
		Fee:           ic.Fee,
		OwnerLamports: ownerLamports,
		VaultLamports: vaultLamports,
	}, nil
}

func (p *Program) deposit(ic *InvokeCtx, amount uint64) (uint64, uint64, error) {
	if amount == 0 {
		klog.Errorf("Deposit: amount must be non-zero")
		return 0, 0, VaultErrInvalidAmount
	}

	owner, vaultAcct := ic.Owner, ic.Vault

	required, err := safemath.CheckedAddU64(amount, ic.Fee)
	if err != nil {
		return 0, 0, VaultErrArithmeticOverflow
	}

	ownerLamports, err := safemath.CheckedSubU64(owner.Lamports, required)
	if err != nil {
		klog.Errorf("Deposit: insufficient lamports %d, need %d", owner.Lamports, required)
		return 0, 0, VaultErrInsufficientFunds
	}

	vaultLamports, err := safemath.CheckedAddU64(vaultAcct.Lamports, amount)
	if err != nil {
		return 0, 0, VaultErrArithmeticOverflow
	}

	preVault := rent.NewRentStateInfo(ic.Rent, vaultAcct.Lamports, uint64(len(vaultAcct.Data)))
	postVault := rent.NewRentStateInfo(ic.Rent, vaultLamports, uint64(len(vaultAcct.Data)))
	if rent.CheckRentStateTransition(preVault, postVault) != nil {
		klog.Errorf("Deposit: vault balance %d below reserve %d", vaultLamports, ic.Rent.MinimumBalance(uint64(len(vaultAcct.Data))))
		return 0, 0, VaultErrBelowReserve
	}

	// the owner may not be left holding a balance too small to persist
	preOwner := rent.NewRentStateInfo(ic.Rent, owner.Lamports, uint64(len(owner.Data)))
	postOwner := rent.NewRentStateInfo(ic.Rent, ownerLamports, uint64(len(owner.Data)))
	if rent.CheckRentStateTransition(preOwner, postOwner) != nil {
		klog.Errorf("Deposit: owner balance %d would fall below reserve", ownerLamports)
		return 0, 0, VaultErrInsufficientFunds
	}

	return ownerLamports, vaultLamports, nil
}

func (p *Program) withdraw(ic *InvokeCtx) (uint64, uint64, error) {
	owner, vaultAcct := ic.Owner, ic.Vault

	// the fee comes out of the payout, so a drained owner can still withdraw
	total, err := safemath.CheckedAddU64(owner.Lamports, vaultAcct.Lamports)
	if err != nil {
		return 0, 0, VaultErrArithmeticOverflow
	}

	ownerLamports, err := safemath.CheckedSubU64(total, ic.Fee)
	if err != nil {
		klog.Errorf("Withdraw: owner and vault lamports %d cannot cover fee %d", total, ic.Fee)
		return 0, 0, VaultErrInsufficientFunds
	}

	return ownerLamports, 0, nil
}
