package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Address prefixes for Cardano-style bech32 wallet addresses.
const (
	MainnetPrefix = "addr"
	TestnetPrefix = "addr_test"
)

// ErrInvalidAddress reports a wallet address that is not valid bech32 with a
// recognised prefix.
var ErrInvalidAddress = errors.New("chain: invalid wallet address")

// ValidateAddress checks that addr is a well-formed bech32 wallet address.
// Payment addresses run past the 90-character BIP-173 cap, so decoding must
// not enforce it. The decoded payload is discarded; this service only routes
// addresses, it never derives keys from them.
func ValidateAddress(addr string) error {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	prefix, decoded, err := bech32.DecodeNoLimit(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if prefix != MainnetPrefix && prefix != TestnetPrefix {
		return fmt.Errorf("%w: unexpected prefix %q", ErrInvalidAddress, prefix)
	}
	if _, err := bech32.ConvertBits(decoded, 5, 8, false); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}
