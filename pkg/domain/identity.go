// Package domain holds primitive types shared across modules.
package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "registrar/pkg/domain-errors"
)

// Identity is an account address that controls names, pays fees or receives
// withdrawals. It is always stored in canonical lower-case form: "0x" followed
// by 40 hex digits.
type Identity string

const identityHexLen = 40

// ZeroIdentity is the all-zero address; it can never receive funds.
const ZeroIdentity Identity = "0x0000000000000000000000000000000000000000"

// ParseIdentity validates and canonicalizes an address. Mixed-case input must
// carry a valid EIP-55 checksum; all-lower and all-upper input is accepted as is.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	if len(s) != identityHexLen+2 || (s[:2] != "0x" && s[:2] != "0X") {
		return "", dErrors.New(dErrors.CodeValidation, "identity must be 0x followed by 40 hex digits")
	}
	digits := s[2:]
	if _, err := hex.DecodeString(digits); err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "identity must be 0x followed by 40 hex digits")
	}
	lower := strings.ToLower(digits)
	if digits != lower && digits != strings.ToUpper(digits) {
		if checksumHex(lower) != digits {
			return "", dErrors.New(dErrors.CodeValidation, "identity has an invalid checksum")
		}
	}
	return Identity("0x" + lower), nil
}

// MustParseIdentity is ParseIdentity for constants and tests.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical lower-case form.
func (i Identity) String() string {
	return string(i)
}

// IsNil reports whether the identity is unset.
func (i Identity) IsNil() bool {
	return i == ""
}

// IsZero reports whether the identity is the zero address.
func (i Identity) IsZero() bool {
	return i == ZeroIdentity
}

// Checksum returns the EIP-55 mixed-case form.
func (i Identity) Checksum() string {
	if len(i) != identityHexLen+2 {
		return string(i)
	}
	return "0x" + checksumHex(string(i[2:]))
}

// checksumHex applies EIP-55 casing to 40 lower-case hex digits.
func checksumHex(lower string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	sum := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}
