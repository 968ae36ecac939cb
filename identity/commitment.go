// Package identity implements the privacy-preserving KYC commitment scheme.
// A commitment binds private attributes without storing them: only the hash
// is persisted and minted into the credential, and only the holder of the
// original attributes can reproduce it. This is a hash commitment, not a
// zero-knowledge circuit.
package identity

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"lukechampine.com/blake3"
)

// Attributes are the private KYC inputs. They are hashed and discarded,
// never persisted.
type Attributes struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Country     string `json:"country"`
	IDNumber    string `json:"idNumber"`
}

// Validate ensures all attributes are present.
func (a Attributes) Validate() error {
	if strings.TrimSpace(a.Name) == "" ||
		strings.TrimSpace(a.DateOfBirth) == "" ||
		strings.TrimSpace(a.Country) == "" ||
		strings.TrimSpace(a.IDNumber) == "" {
		return errors.New("identity: name, dateOfBirth, country and idNumber are required")
	}
	return nil
}

// Commitment is the public artifact of the scheme. Country is disclosed as
// a public input; everything else stays inside the hash.
type Commitment struct {
	Hash         string   `json:"hash"`
	PublicInputs []string `json:"publicInputs"`
}

// Commit derives the commitment for the supplied attributes. The derivation
// is deterministic: identical attributes always produce the same hash.
func Commit(a Attributes) (Commitment, error) {
	if err := a.Validate(); err != nil {
		return Commitment{}, err
	}
	sum := blake3.Sum256(serialize(a))
	return Commitment{
		Hash:         hex.EncodeToString(sum[:]),
		PublicInputs: []string{strings.TrimSpace(a.Country)},
	}, nil
}

// Verify reports whether attrs reproduce the stored commitment hash.
func Verify(a Attributes, storedHash string) bool {
	if a.Validate() != nil {
		return false
	}
	sum := blake3.Sum256(serialize(a))
	derived := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(derived), []byte(strings.ToLower(strings.TrimSpace(storedHash)))) == 1
}

// serialize builds the canonical preimage. The field separator cannot occur
// in attribute values after trimming, keeping the encoding injective.
func serialize(a Attributes) []byte {
	fields := []string{
		strings.TrimSpace(a.Name),
		strings.TrimSpace(a.DateOfBirth),
		strings.TrimSpace(a.Country),
		strings.TrimSpace(a.IDNumber),
	}
	return []byte(strings.Join(fields, "\x1f"))
}
