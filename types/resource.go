package types

import (
	"sort"
)

// A NonFungibleLocalID identifies a single unit within a non-fungible
// resource collection.
type NonFungibleLocalID uint64

// NFTID wraps an integer id, mirroring how test code spells out single ids.
func NFTID(id uint64) NonFungibleLocalID {
	return NonFungibleLocalID(id)
}

// NFTIDs builds a canonically sorted id set for assertions and manifest
// operations.
func NFTIDs(ids ...uint64) []NonFungibleLocalID {
	out := make([]NonFungibleLocalID, len(ids))
	for i, id := range ids {
		out[i] = NonFungibleLocalID(id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// A ResourceSpecifier describes a quantity of a single resource, either as a
// fungible amount or as a set of non-fungible ids.
type ResourceSpecifier struct {
	Resource Address
	Amount   Decimal
	IDs      []NonFungibleLocalID
}

// NewAmountSpecifier describes a fungible quantity.
func NewAmountSpecifier(resource Address, amount Decimal) ResourceSpecifier {
	return ResourceSpecifier{Resource: resource, Amount: amount}
}

// NewIDsSpecifier describes a set of non-fungible units.
func NewIDsSpecifier(resource Address, ids []NonFungibleLocalID) ResourceSpecifier {
	return ResourceSpecifier{Resource: resource, IDs: ids}
}

// Address returns the owning resource address, uniformly for fungible and
// non-fungible specifiers.
func (s ResourceSpecifier) Address() Address {
	return s.Resource
}

func (s ResourceSpecifier) IsFungible() bool {
	return s.IDs == nil
}
