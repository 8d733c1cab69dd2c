package accounts

import (
	"bytes"
	"errors"
	"io"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ErrNilAccount = errors.New("ErrNilAccount")

// Accounts is the ledger view the vault bank executes against. Reading an
// address that was never written (or was drained) yields a zero-lamport,
// system-owned account rather than an error.
type Accounts interface {
	GetAccount(pubkey solana.PublicKey) (*Account, error)
	// SetAccounts persists all given accounts as one unit. Accounts with zero
	// lamports and no data are removed.
	SetAccounts(accts ...*Account) error
}

type Account struct {
	Key        solana.PublicKey
	Lamports   uint64
	Data       []byte
	Owner      solana.PublicKey
	Executable bool
	RentEpoch  uint64
}

// NewEmptyAccount returns the representation of an unallocated address.
func NewEmptyAccount(key solana.PublicKey) *Account {
	return &Account{Key: key, Data: make([]byte, 0), Owner: solana.SystemProgramID}
}

// IsDeallocated reports whether the account would revert to nonexistent if
// persisted as-is.
func (a *Account) IsDeallocated() bool {
	return a.Lamports == 0 && len(a.Data) == 0
}

func (a *Account) Clone() *Account {
	c := *a
	c.Data = make([]byte, len(a.Data))
	copy(c.Data, a.Data)
	return &c
}

func (a *Account) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	a.Lamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	var dataLen uint64
	dataLen, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	if dataLen > uint64(decoder.Remaining()) {
		return io.ErrUnexpectedEOF
	}
	a.Data, err = decoder.ReadNBytes(int(dataLen))
	if err != nil {
		return err
	}
	owner, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	a.Owner = solana.PublicKeyFromBytes(owner)
	a.Executable, err = decoder.ReadBool()
	if err != nil {
		return err
	}
	a.RentEpoch, err = decoder.ReadUint64(bin.LE)
	return
}

func (a *Account) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(a.Lamports, bin.LE)
	_ = encoder.WriteUint64(uint64(len(a.Data)), bin.LE)
	_ = encoder.WriteBytes(a.Data, false)
	_ = encoder.WriteBytes(a.Owner[:], false)
	_ = encoder.WriteBool(a.Executable)
	return encoder.WriteUint64(a.RentEpoch, bin.LE)
}

func (a *Account) Marshal() ([]byte, error) {
	writer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(writer)
	if err := a.MarshalWithEncoder(encoder); err != nil {
		return nil, err
	}
	return writer.Bytes(), nil
}
