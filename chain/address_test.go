package chain

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

func encodeTestAddress(t *testing.T, prefix string, payload []byte) string {
	t.Helper()
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		t.Fatalf("convert bits: %v", err)
	}
	encoded, err := bech32.Encode(prefix, conv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return encoded
}

func TestValidateAddress(t *testing.T) {
	payload := make([]byte, 29)
	for i := range payload {
		payload[i] = byte(i)
	}

	valid := encodeTestAddress(t, TestnetPrefix, payload)
	if err := ValidateAddress(valid); err != nil {
		t.Fatalf("expected valid address, got %v", err)
	}

	mainnet := encodeTestAddress(t, MainnetPrefix, payload)
	if err := ValidateAddress(mainnet); err != nil {
		t.Fatalf("expected valid mainnet address, got %v", err)
	}

	cases := map[string]string{
		"empty":        "",
		"not bech32":   "addr1notbech32!!!",
		"wrong prefix": encodeTestAddress(t, "stake", payload),
	}
	for name, addr := range cases {
		if err := ValidateAddress(addr); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("%s: expected ErrInvalidAddress, got %v", name, err)
		}
	}
}

func TestValidateAddressAcceptsFullPaymentAddresses(t *testing.T) {
	// A base payment address carries a header byte plus two 28-byte hashes,
	// encoding to roughly 108 characters. That exceeds the 90-character
	// BIP-173 cap, which must not apply here.
	payload := make([]byte, 57)
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	address := encodeTestAddress(t, TestnetPrefix, payload)
	if len(address) <= 90 {
		t.Fatalf("expected an over-90-char address, got %d chars", len(address))
	}
	if err := ValidateAddress(address); err != nil {
		t.Fatalf("payment-sized address rejected: %v", err)
	}

	mainnet := encodeTestAddress(t, MainnetPrefix, payload)
	if err := ValidateAddress(mainnet); err != nil {
		t.Fatalf("mainnet payment-sized address rejected: %v", err)
	}
}
