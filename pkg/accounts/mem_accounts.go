package accounts

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

type MemAccounts struct {
	mu  sync.RWMutex
	Map map[solana.PublicKey]*Account
}

func NewMemAccounts() *MemAccounts {
	return &MemAccounts{
		Map: make(map[solana.PublicKey]*Account),
	}
}

func (m *MemAccounts) GetAccount(pubkey solana.PublicKey) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.Map[pubkey]
	if !ok {
		return NewEmptyAccount(pubkey), nil
	}
	return acct.Clone(), nil
}

func (m *MemAccounts) SetAccounts(accts ...*Account) error {
	for _, acct := range accts {
		if acct == nil {
			return ErrNilAccount
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, acct := range accts {
		if acct.IsDeallocated() {
			delete(m.Map, acct.Key)
		} else {
			m.Map[acct.Key] = acct.Clone()
		}
	}
	return nil
}
