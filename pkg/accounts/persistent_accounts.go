package accounts

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cockroachdb/pebble"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type PersistentAccountsDb struct {
	db *pebble.DB
}

func OpenPersistentAccountsDb(dir string) (*PersistentAccountsDb, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble accountsdb at %s: %w", dir, err)
	}

	return &PersistentAccountsDb{db: db}, nil
}

func (m *PersistentAccountsDb) Close() error {
	return m.db.Close()
}

func (m *PersistentAccountsDb) GetAccount(pubkey solana.PublicKey) (*Account, error) {
	acctBytes, closer, err := m.db.Get(pubkey[:])
	if errors.Is(err, pebble.ErrNotFound) {
		return NewEmptyAccount(pubkey), nil
	} else if err != nil {
		return nil, fmt.Errorf("error whilst retrieving account %s: %w", pubkey, err)
	}
	// the decoder slices into its input, so copy out of pebble's buffer
	acctBytes = slices.Clone(acctBytes)
	_ = closer.Close()

	decoder := bin.NewBinDecoder(acctBytes)
	acct := &Account{Key: pubkey}

	err = acct.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize account %s from pebble accountsdb: %w", pubkey, err)
	}

	return acct, nil
}

func (m *PersistentAccountsDb) SetAccounts(accts ...*Account) error {
	batch := m.db.NewBatch()
	defer batch.Close()

	for _, acct := range accts {
		if acct == nil {
			return ErrNilAccount
		}

		if acct.IsDeallocated() {
			if err := batch.Delete(acct.Key[:], nil); err != nil {
				return fmt.Errorf("error deleting account %s: %w", acct.Key, err)
			}
			continue
		}

		acctBytes, err := acct.Marshal()
		if err != nil {
			return fmt.Errorf("failed to serialize account %s for storage in pebble accountsdb: %w", acct.Key, err)
		}

		if err = batch.Set(acct.Key[:], acctBytes, nil); err != nil {
			return fmt.Errorf("error setting account for %s: %w", acct.Key, err)
		}
	}

	return batch.Commit(pebble.Sync)
}
