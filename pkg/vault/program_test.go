package vault

import (
	"math"
	"testing"

	"github.com/Overclock-Validator/vault/pkg/accounts"
	"github.com/Overclock-Validator/vault/pkg/cu"
	"github.com/Overclock-Validator/vault/pkg/rent"
	pda "github.com/Overclock-Validator/vault/pkg/solana"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFee = 5000

type vaultFixture struct {
	program *Program
	owner   *accounts.Account
	vault   *accounts.Account
	rent    rent.Rent
}

func newVaultFixture(t *testing.T, ownerLamports uint64) *vaultFixture {
	_, ownerKey := newOwner(t)
	vaultAddr, _, err := VaultAddress(DefaultProgramID, ownerKey)
	require.NoError(t, err)

	owner := accounts.NewEmptyAccount(ownerKey)
	owner.Lamports = ownerLamports

	return &vaultFixture{
		program: NewProgram(DefaultProgramID),
		owner:   owner,
		vault:   accounts.NewEmptyAccount(vaultAddr),
		rent:    rent.DefaultRent(),
	}
}

func (f *vaultFixture) invokeCtx(signers ...solana.PublicKey) *InvokeCtx {
	cm := cu.NewComputeMeterDefault()
	return &InvokeCtx{
		Signers:      signers,
		Owner:        f.owner,
		Vault:        f.vault,
		Rent:         &f.rent,
		Fee:          testFee,
		ComputeMeter: &cm,
	}
}

func (f *vaultFixture) apply(instr Instruction) (*Result, error) {
	return f.program.Apply(f.invokeCtx(f.owner.Key), instr)
}

func TestVault_DepositThenWithdraw(t *testing.T) {
	f := newVaultFixture(t, 3*solana.LAMPORTS_PER_SOL)
	depositAmount := solana.LAMPORTS_PER_SOL / 2

	initialOwner := f.owner.Lamports

	res, err := f.apply(Deposit{Amount: depositAmount})
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, res.PreState)
	assert.Equal(t, StateFunded, res.PostState)
	assert.Equal(t, depositAmount, f.vault.Lamports)
	assert.Equal(t, initialOwner-depositAmount-testFee, f.owner.Lamports)
	assert.Equal(t, solana.SystemProgramID, f.vault.Owner)

	ownerAfterDeposit := f.owner.Lamports

	res, err = f.apply(Withdraw{})
	require.NoError(t, err)
	assert.Equal(t, StateFunded, res.PreState)
	assert.Equal(t, StateEmpty, res.PostState)
	assert.Equal(t, depositAmount, res.Moved)
	assert.Equal(t, uint64(0), f.vault.Lamports)
	assert.True(t, f.vault.IsDeallocated())
	assert.Equal(t, ownerAfterDeposit+depositAmount-testFee, f.owner.Lamports)

	// round trip costs exactly the two fees
	assert.Equal(t, initialOwner-2*testFee, f.owner.Lamports)
}

func TestVault_DepositIsAdditive(t *testing.T) {
	f := newVaultFixture(t, 3*solana.LAMPORTS_PER_SOL)

	_, err := f.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL})
	require.NoError(t, err)

	res, err := f.apply(Deposit{Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, StateFunded, res.PreState)
	assert.Equal(t, solana.LAMPORTS_PER_SOL+1, f.vault.Lamports)

	// withdraw moves everything, not the last deposit
	res, err = f.apply(Withdraw{})
	require.NoError(t, err)
	assert.Equal(t, solana.LAMPORTS_PER_SOL+1, res.Moved)
}

func TestVault_DoubleWithdraw(t *testing.T) {
	f := newVaultFixture(t, 3*solana.LAMPORTS_PER_SOL)

	_, err := f.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL})
	require.NoError(t, err)
	_, err = f.apply(Withdraw{})
	require.NoError(t, err)

	ownerBefore := f.owner.Lamports
	_, err = f.apply(Withdraw{})
	assert.ErrorIs(t, err, VaultErrNothingToWithdraw)
	assert.Equal(t, ownerBefore, f.owner.Lamports)
	assert.Equal(t, uint64(0), f.vault.Lamports)
}

func TestVault_WithdrawFromEmpty(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)
	_, err := f.apply(Withdraw{})
	assert.ErrorIs(t, err, VaultErrNothingToWithdraw)
}

func TestVault_DepositZero(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)
	_, err := f.apply(Deposit{Amount: 0})
	assert.ErrorIs(t, err, VaultErrInvalidAmount)
	assert.Equal(t, solana.LAMPORTS_PER_SOL, f.owner.Lamports)
}

func TestVault_InsufficientFunds(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)

	// amount alone fits, amount plus fee does not
	_, err := f.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL})
	assert.ErrorIs(t, err, VaultErrInsufficientFunds)
	assert.Equal(t, solana.LAMPORTS_PER_SOL, f.owner.Lamports)
	assert.Equal(t, uint64(0), f.vault.Lamports)

	// leaving the owner with a dust balance is rejected too
	_, err = f.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL - testFee - 1})
	assert.ErrorIs(t, err, VaultErrInsufficientFunds)

	// spending the owner down to exactly zero is fine
	_, err = f.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL - testFee})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), f.owner.Lamports)

}

func TestVault_DrainedOwnerCanWithdraw(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)

	_, err := f.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL - testFee})
	require.NoError(t, err)
	require.Equal(t, uint64(0), f.owner.Lamports)

	// the withdraw fee is taken from the payout
	res, err := f.apply(Withdraw{})
	require.NoError(t, err)
	assert.Equal(t, solana.LAMPORTS_PER_SOL-testFee, res.Moved)
	assert.Equal(t, solana.LAMPORTS_PER_SOL-2*testFee, f.owner.Lamports)
	assert.Equal(t, uint64(0), f.vault.Lamports)
	assert.Equal(t, StateEmpty, StateOf(f.vault))
}

func TestVault_BelowReserve(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)
	reserve := f.rent.MinimumBalance(0)

	_, err := f.apply(Deposit{Amount: reserve - 1})
	assert.ErrorIs(t, err, VaultErrBelowReserve)
	assert.Equal(t, solana.LAMPORTS_PER_SOL, f.owner.Lamports)
	assert.Equal(t, uint64(0), f.vault.Lamports)

	_, err = f.apply(Deposit{Amount: reserve})
	require.NoError(t, err)
	assert.Equal(t, reserve, f.vault.Lamports)

	// once exempt, small top-ups are fine
	_, err = f.apply(Deposit{Amount: 1})
	require.NoError(t, err)
}

func TestVault_Unauthorized(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)
	_, attacker := newOwner(t)

	_, err := f.program.Apply(f.invokeCtx(attacker), Deposit{Amount: solana.LAMPORTS_PER_SOL / 2})
	assert.ErrorIs(t, err, VaultErrUnauthorized)

	_, err = f.program.Apply(f.invokeCtx(), Withdraw{})
	assert.ErrorIs(t, err, VaultErrUnauthorized)

	assert.Equal(t, solana.LAMPORTS_PER_SOL, f.owner.Lamports)
	assert.Equal(t, uint64(0), f.vault.Lamports)
}

func TestVault_AddressMismatch(t *testing.T) {
	victim := newVaultFixture(t, 3*solana.LAMPORTS_PER_SOL)
	_, err := victim.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL})
	require.NoError(t, err)

	// attacker signs for themselves but names the victim's vault
	attacker := newVaultFixture(t, solana.LAMPORTS_PER_SOL)
	attacker.vault = victim.vault

	_, err = attacker.apply(Withdraw{})
	assert.ErrorIs(t, err, VaultErrAddressMismatch)
	assert.Equal(t, solana.LAMPORTS_PER_SOL, victim.vault.Lamports)
	assert.Equal(t, solana.LAMPORTS_PER_SOL, attacker.owner.Lamports)

	// a vault address for the right owner under another program is rejected
	otherAddr, _, err := VaultAddress(solana.SystemProgramID, victim.owner.Key)
	require.NoError(t, err)
	victim.vault = accounts.NewEmptyAccount(otherAddr)
	_, err = victim.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL})
	assert.ErrorIs(t, err, VaultErrAddressMismatch)
}

func TestVault_ArithmeticOverflow(t *testing.T) {
	f := newVaultFixture(t, math.MaxUint64)

	_, err := f.apply(Deposit{Amount: math.MaxUint64})
	assert.ErrorIs(t, err, VaultErrArithmeticOverflow)

	f.vault.Lamports = math.MaxUint64 - 10
	_, err = f.apply(Deposit{Amount: solana.LAMPORTS_PER_SOL})
	assert.ErrorIs(t, err, VaultErrArithmeticOverflow)

	_, err = f.apply(Withdraw{})
	assert.ErrorIs(t, err, VaultErrArithmeticOverflow)
	assert.Equal(t, uint64(math.MaxUint64), f.owner.Lamports)
	assert.Equal(t, uint64(math.MaxUint64-10), f.vault.Lamports)
}

func TestVault_NoValidBumpFound(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)
	f.program.finder = pda.AddressFinder{IsOnCurve: func([]byte) bool { return true }}

	ic := f.invokeCtx(f.owner.Key)
	ic.ComputeMeter = nil
	_, err := f.program.Apply(ic, Deposit{Amount: solana.LAMPORTS_PER_SOL / 2})
	assert.ErrorIs(t, err, VaultErrNoValidBumpFound)
	assert.Equal(t, solana.LAMPORTS_PER_SOL, f.owner.Lamports)
}

func TestVault_ComputeBudget(t *testing.T) {
	f := newVaultFixture(t, solana.LAMPORTS_PER_SOL)
	ic := f.invokeCtx(f.owner.Key)
	cm := cu.NewComputeMeter(CUVaultActionBaseUnits)
	ic.ComputeMeter = &cm

	_, err := f.program.Apply(ic, Deposit{Amount: solana.LAMPORTS_PER_SOL / 2})
	assert.ErrorIs(t, err, cu.ErrComputeExceeded)
	assert.Equal(t, solana.LAMPORTS_PER_SOL, f.owner.Lamports)
}

func TestVault_ErrorCodes(t *testing.T) {
	code, ok := CodeOf(VaultErrBelowReserve)
	assert.True(t, ok)
	assert.Equal(t, uint32(6004), code)

	e, err := ErrorFromCode(6005)
	require.NoError(t, err)
	assert.Equal(t, VaultErrNothingToWithdraw, e)

	_, err = ErrorFromCode(7000)
	assert.Error(t, err)

	_, ok = CodeOf(ErrInvalidInstructionData)
	assert.False(t, ok)
}

func TestVault_StateTable(t *testing.T) {
	s, err := nextState(StateEmpty, Deposit{Amount: 1})
	assert.NoError(t, err)
	assert.Equal(t, StateFunded, s)

	s, err = nextState(StateFunded, Deposit{Amount: 1})
	assert.NoError(t, err)
	assert.Equal(t, StateFunded, s)

	s, err = nextState(StateFunded, Withdraw{})
	assert.NoError(t, err)
	assert.Equal(t, StateEmpty, s)

	_, err = nextState(StateEmpty, Withdraw{})
	assert.ErrorIs(t, err, VaultErrNothingToWithdraw)

	assert.Equal(t, "Funded", StateFunded.String())
}
