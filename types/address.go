package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// AddressKind discriminates the entity family an address belongs to.
type AddressKind byte

const (
	AddressKindAccount AddressKind = iota + 1
	AddressKindResource
	AddressKindPackage
	AddressKindComponent
)

func (k AddressKind) String() string {
	switch k {
	case AddressKindAccount:
		return "account"
	case AddressKindResource:
		return "resource"
	case AddressKindPackage:
		return "package"
	case AddressKindComponent:
		return "component"
	default:
		return "unknown"
	}
}

// AddressLength is the size of an address in bytes: one kind byte followed
// by 25 bytes derived from the allocation seed.
const AddressLength = 26

// An Address uniquely identifies an account, resource, package or component
// on a simulated ledger. Addresses are derived deterministically from the
// ledger's allocation sequence, so identical bootstrap sequences yield
// identical addresses.
type Address [AddressLength]byte

// NewAddress derives an address of the given kind from an allocation nonce.
func NewAddress(kind AddressKind, nonce uint64) Address {
	var seed [9]byte
	seed[0] = byte(kind)
	binary.BigEndian.PutUint64(seed[1:], nonce)
	digest := sha256.Sum256(seed[:])

	var a Address
	a[0] = byte(kind)
	copy(a[1:], digest[:AddressLength-1])
	return a
}

func (a Address) Kind() AddressKind {
	return AddressKind(a[0])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return fmt.Sprintf("%s_%s", a.Kind(), hex.EncodeToString(a[1:]))
}

// Compare orders addresses bytewise.
func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}

func (a Address) MarshalBinary() ([]byte, error) {
	return a[:], nil
}

func (a *Address) UnmarshalBinary(data []byte) error {
	if len(data) != AddressLength {
		return fmt.Errorf("invalid address length %d, expected %d", len(data), AddressLength)
	}
	copy(a[:], data)
	return nil
}

// SortAddresses returns the pair in canonical bytewise order.
func SortAddresses(a Address, b Address) (Address, Address) {
	if a.Compare(b) < 0 {
		return a, b
	}
	return b, a
}
