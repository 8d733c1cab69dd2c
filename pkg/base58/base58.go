// Package base58 wraps mr-tron/base58 with the fixed-size helpers used for
// 32-byte Solana addresses.
package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

func Encode(b []byte) string {
	return base58.Encode(b)
}

// DecodeFromString decodes a base58 string into a 32-byte address.
func DecodeFromString(s string) ([32]byte, error) {
	var out [32]byte
	b, err := base58.Decode(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("invalid address length %d for %q", len(b), s)
	}
	copy(out[:], b)
	return out, nil
}

func MustDecodeFromString(s string) [32]byte {
	out, err := DecodeFromString(s)
	if err != nil {
		panic(err)
	}
	return out
}
