package vault

import (
	"errors"

	"github.com/Overclock-Validator/vault/pkg/cu"
	pda "github.com/Overclock-Validator/vault/pkg/solana"
	"github.com/gagliardetto/solana-go"
)

// VaultSeed is the fixed tag every vault address is derived from.
const VaultSeed = "vault"

// DefaultProgramID is the address the vault program is deployed at unless
// configured otherwise.
var DefaultProgramID = solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")

const CUCreateProgramAddressUnits = 1500

func vaultSeeds(tag []byte, owner solana.PublicKey) [][]byte {
	return [][]byte{tag, owner[:]}
}

// DeriveAddress computes the program derived address for (tag, owner) under
// programID, searching bumps from 255 down to 0.
func DeriveAddress(programID solana.PublicKey, tag []byte, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return deriveAddress(pda.AddressFinder{}, programID, tag, owner)
}

// VaultAddress derives the vault of owner.
func VaultAddress(programID solana.PublicKey, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return DeriveAddress(programID, []byte(VaultSeed), owner)
}

func deriveAddress(finder pda.AddressFinder, programID solana.PublicKey, tag []byte, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := finder.Find(vaultSeeds(tag, owner), programID[:])
	if errors.Is(err, pda.ErrNoValidBumpFound) {
		return solana.PublicKey{}, 0, VaultErrNoValidBumpFound
	} else if err != nil {
		return solana.PublicKey{}, 0, err
	}
	return solana.PublicKeyFromBytes(addr), bump, nil
}

// meteredVaultAddress derives the vault of owner, charging compute units per
// attempt. knownBump must come from an earlier canonical derivation; it skips
// the search and costs a single attempt.
func meteredVaultAddress(finder pda.AddressFinder, computeMeter *cu.ComputeMeter, programID solana.PublicKey, owner solana.PublicKey, knownBump *uint8) (solana.PublicKey, uint8, error) {
	charge := func(uint8) error {
		if computeMeter == nil {
			return nil
		}
		return computeMeter.Consume(CUCreateProgramAddressUnits)
	}

	if knownBump != nil {
		if err := charge(*knownBump); err != nil {
			return solana.PublicKey{}, 0, err
		}
		seeds := append(vaultSeeds([]byte(VaultSeed), owner), []byte{*knownBump})
		addr, err := pda.CreateProgramAddressBytes(seeds, programID[:])
		if err == nil {
			return solana.PublicKeyFromBytes(addr), *knownBump, nil
		}
		// a stale or bogus hint falls back to the full search
	}

	finder.OnAttempt = charge
	return deriveAddress(finder, programID, []byte(VaultSeed), owner)
}
