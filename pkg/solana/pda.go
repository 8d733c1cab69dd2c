package solana

import (
	"errors"
	"math"

	"filippo.io/edwards25519"
	"github.com/minio/sha256-simd"
)

const MaxSeeds = 16
const MaxSeedLen = 32
const PublicKeyLength = 32
const PdaMarker = "ProgramDerivedAddress"

var (
	ErrSeedLength          = errors.New("Max seeds (16) exceeded")
	ErrAddressLength       = errors.New("Wrong key length; addresses are 32 bytes long")
	ErrOnCurveInvalidSeeds = errors.New("Invalid seeds - generated address must be off-curve")
	ErrNoValidBumpFound    = errors.New("Unable to find a viable program address bump seed")
)

func CreateProgramAddressBytes(seeds [][]byte, programID []byte) ([]byte, error) {
	return createProgramAddress(seeds, programID, IsOnCurve)
}

func createProgramAddress(seeds [][]byte, programID []byte, isOnCurve func([]byte) bool) ([]byte, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrSeedLength
	}

	if len(programID) != PublicKeyLength {
		return nil, ErrAddressLength
	}

	hasher := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return nil, ErrSeedLength
		}
		hasher.Write(seed)
	}

	hasher.Write(programID)
	hasher.Write([]byte(PdaMarker))
	hash := hasher.Sum(nil)

	if isOnCurve(hash[:]) {
		return nil, ErrOnCurveInvalidSeeds
	}

	return hash[:], nil
}

// IsOnCurve checks if 'b' is on the ed25519 curve
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	onCurve := err == nil
	return onCurve
}

// AddressFinder searches bump seeds for a program derived address.
// The zero value uses the ed25519 curve check and charges nothing per attempt.
type AddressFinder struct {
	// IsOnCurve overrides the curve check, mostly for tests.
	IsOnCurve func([]byte) bool
	// OnAttempt is invoked before every bump attempt. A non-nil error aborts
	// the search and is returned unchanged.
	OnAttempt func(bump uint8) error
}

// Find walks bump seeds from 255 down to 0 and returns the first address that
// falls off the curve together with its bump. The bump is appended as the
// last seed, so len(seeds) must leave room for it.
func (f AddressFinder) Find(seeds [][]byte, programID []byte) ([]byte, uint8, error) {
	if len(seeds)+1 > MaxSeeds {
		return nil, 0, ErrSeedLength
	}

	isOnCurve := f.IsOnCurve
	if isOnCurve == nil {
		isOnCurve = IsOnCurve
	}

	seedsWithBump := make([][]byte, len(seeds)+1)
	copy(seedsWithBump, seeds)
	bumpSeed := []byte{0}
	seedsWithBump[len(seeds)] = bumpSeed

	for bump := math.MaxUint8; bump >= 0; bump-- {
		if f.OnAttempt != nil {
			if err := f.OnAttempt(uint8(bump)); err != nil {
				return nil, 0, err
			}
		}

		bumpSeed[0] = uint8(bump)
		address, err := createProgramAddress(seedsWithBump, programID, isOnCurve)
		if err == nil {
			return address, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurveInvalidSeeds) {
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoValidBumpFound
}

func FindProgramAddress(seeds [][]byte, programID []byte) ([]byte, uint8, error) {
	return AddressFinder{}.Find(seeds, programID)
}
