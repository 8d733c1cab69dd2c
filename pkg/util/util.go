package util

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/Overclock-Validator/vault/pkg/accounts"
	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"
)

// SortedUniquePubkeys returns a sorted copy of pubkeys with duplicates
// removed. The input is left untouched.
func SortedUniquePubkeys(pubkeys []solana.PublicKey) []solana.PublicKey {
	out := slices.Clone(pubkeys)
	slices.SortFunc(out, func(a, b solana.PublicKey) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}

var zeroHash [32]byte

// AcctHash is the blake3 digest of the account key followed by its stored
// encoding. A deallocated account hashes to zero.
func AcctHash(acct *accounts.Account) []byte {
	if acct.IsDeallocated() {
		return zeroHash[:]
	}

	encoded, err := acct.Marshal()
	if err != nil {
		panic(fmt.Sprintf("failed to encode account %s for hashing: %s", acct.Key, err))
	}

	hasher := blake3.New()
	_, _ = hasher.Write(acct.Key[:])
	_, _ = hasher.Write(encoded)
	return hasher.Sum(nil)
}

func PrettyPrintAcct(acct *accounts.Account) string {
	return fmt.Sprintf("%s: %d lamports, owner %s, %d bytes", acct.Key, acct.Lamports, acct.Owner, len(acct.Data))
}
