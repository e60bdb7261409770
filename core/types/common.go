// Package types defines the core value types of the UNITS state-transition
// engine: object identifiers, objects, instructions, transactions, effects,
// proofs, and receipts.
package types

import (
	"encoding/hex"
	"errors"
)

// ObjectIdLength is the fixed size, in bytes, of a UnitsObjectId.
const ObjectIdLength = 32

// ErrInvalidLength is returned by SetBytes when the source slice does not
// match the fixed width of the destination value type.
var ErrInvalidLength = errors.New("types: invalid byte slice length")

// ObjectId uniquely identifies a UnitsObject. It is an opaque 32-byte value —
// callers must not assume any internal structure (e.g. that it is a hash of
// anything in particular).
type ObjectId [ObjectIdLength]byte

// BytesToObjectId right-aligns b into an ObjectId, truncating on the left if
// b is longer than ObjectIdLength.
func BytesToObjectId(b []byte) ObjectId {
	var id ObjectId
	id.SetBytes(b)
	return id
}

// HexToObjectId decodes a hex string (with or without "0x" prefix) into an
// ObjectId. It returns the zero value if decoding fails.
func HexToObjectId(s string) ObjectId {
	return BytesToObjectId(FromHex(s))
}

// SetBytes sets id to the value of b, right-aligned, truncating on the left
// if b is longer than ObjectIdLength.
func (id *ObjectId) SetBytes(b []byte) {
	if len(b) > len(id) {
		b = b[len(b)-ObjectIdLength:]
	}
	copy(id[ObjectIdLength-len(b):], b)
}

// Bytes returns the byte slice representation of id.
func (id ObjectId) Bytes() []byte { return id[:] }

// Hex returns the "0x"-prefixed lowercase hex encoding of id.
func (id ObjectId) Hex() string { return "0x" + hex.EncodeToString(id[:]) }

// String implements fmt.Stringer.
func (id ObjectId) String() string { return id.Hex() }

// IsZero reports whether id is the all-zero value.
func (id ObjectId) IsZero() bool { return id == ObjectId{} }

// Less reports whether id sorts strictly before other, used to produce the
// deterministic ascending-id lock ordering required by spec §5.
func (id ObjectId) Less(other ObjectId) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// Hash is a generic 32-byte digest, used for transaction hashes, object
// content hashes, and proof/state roots.
type Hash [32]byte

// BytesToHash right-aligns b into a Hash, truncating on the left if b is
// longer than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash decodes a hex string into a Hash, returning the zero value on
// failure.
func HexToHash(s string) Hash {
	return BytesToHash(FromHex(s))
}

// SetBytes sets h to the value of b, right-aligned.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
}

// Bytes returns the byte slice representation of h.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the "0x"-prefixed lowercase hex encoding of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the all-zero value.
func (h Hash) IsZero() bool { return h == Hash{} }

// FromHex strips an optional "0x"/"0X" prefix and decodes the remainder as
// hex, returning nil on any decode error rather than propagating it — used
// only by the Hex*To* convenience constructors, which are lossy by design.
func FromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
