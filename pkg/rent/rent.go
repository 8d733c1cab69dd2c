// Package rent decides how many lamports an account must hold to persist on
// the ledger, and which balance transitions are allowed with respect to that
// minimum.
package rent

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/Overclock-Validator/vault/pkg/base58"
	"github.com/Overclock-Validator/vault/pkg/safemath"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarRentAddrStr))

const SysvarRentStructLen = 17

// AccountStorageOverhead is charged on top of the account data length.
const AccountStorageOverhead = 128

const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

var ErrRentStateTransitionNotAllowed = errors.New("ErrRentStateTransitionNotAllowed")

type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         byte
}

func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		BurnPercent:         DefaultBurnPercent,
	}
}

// MinimumBalance returns the rent-exempt reserve for an account holding
// dataLen bytes.
func (r *Rent) MinimumBalance(dataLen uint64) uint64 {
	bytesCharged := safemath.SaturatingAddU64(AccountStorageOverhead, dataLen)
	perYear, err := safemath.CheckedMulU64(bytesCharged, r.LamportsPerByteYear)
	if err != nil {
		return math.MaxUint64
	}
	minBalance := float64(perYear) * r.ExemptionThreshold
	if minBalance >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(minBalance)
}

func (r *Rent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= r.MinimumBalance(dataLen)
}

func (r *Rent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	r.LamportsPerByteYear, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerByteYear when decoding Rent: %w", err)
	}

	r.ExemptionThreshold, err = decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding Rent: %w", err)
	}

	r.BurnPercent, err = decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding Rent: %w", err)
	}

	return
}

func (r *Rent) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(r.LamportsPerByteYear, bin.LE)
	_ = encoder.WriteFloat64(r.ExemptionThreshold, bin.LE)
	return encoder.WriteByte(r.BurnPercent)
}

func (r *Rent) Marshal() []byte {
	writer := new(bytes.Buffer)
	_ = r.MarshalWithEncoder(bin.NewBinEncoder(writer))
	return writer.Bytes()
}

const (
	RentStateUninitialized = iota
	RentStateRentPaying
	RentStateRentExempt
)

type RentPayingInfo struct {
	Lamports uint64
	DataSize uint64
}

type RentStateInfo struct {
	RentState      uint64
	RentPayingInfo RentPayingInfo
}

func NewRentStateInfo(r *Rent, lamports uint64, dataSize uint64) *RentStateInfo {
	if lamports == 0 {
		return &RentStateInfo{RentState: RentStateUninitialized}
	} else if r.IsExempt(lamports, dataSize) {
		return &RentStateInfo{RentState: RentStateRentExempt}
	} else {
		return &RentStateInfo{RentState: RentStateRentPaying, RentPayingInfo: RentPayingInfo{Lamports: lamports, DataSize: dataSize}}
	}
}

// CheckRentStateTransition rejects any transition that ends in a rent-paying
// state, unless the account was already rent-paying with the same size and
// did not gain lamports.
func CheckRentStateTransition(pre *RentStateInfo, post *RentStateInfo) error {
	switch post.RentState {
	case RentStateUninitialized, RentStateRentExempt:
		return nil
	}

	if pre.RentState == RentStateRentPaying &&
		post.RentPayingInfo.DataSize == pre.RentPayingInfo.DataSize &&
		post.RentPayingInfo.Lamports <= pre.RentPayingInfo.Lamports {
		return nil
	}

	return ErrRentStateTransitionNotAllowed
}
