package vault

import (
	"github.com/Overclock-Validator/vault/pkg/accounts"
)

// State of a vault. An Empty vault is indistinguishable from an address that
// was never allocated.
type State int

const (
	StateEmpty State = iota
	StateFunded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateFunded:
		return "Funded"
	}
	return "Unknown"
}

func StateOf(acct *accounts.Account) State {
	if acct.Lamports == 0 {
		return StateEmpty
	}
	return StateFunded
}

// nextState is the transition table. Anything not listed is rejected.
func nextState(from State, instr Instruction) (State, error) {
	switch instr.(type) {
	case Deposit:
		return StateFunded, nil
	case Withdraw:
		if from == StateEmpty {
			return from, VaultErrNothingToWithdraw
		}
		return StateEmpty, nil
	}
	return from, ErrInvalidInstructionData
}

// allocate turns an unallocated address into a data-less system account able
// to hold lamports.
func allocate(acct *accounts.Account) {
	empty := accounts.NewEmptyAccount(acct.Key)
	acct.Owner = empty.Owner
	acct.Data = empty.Data
	acct.Executable = false
}

// deallocate resets a drained vault to the unallocated representation.
func deallocate(acct *accounts.Account) {
	*acct = *accounts.NewEmptyAccount(acct.Key)
}
