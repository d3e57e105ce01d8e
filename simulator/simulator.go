package simulator

import (
	"github.com/ociswap/scrypto-testenv/manifest"
	"github.com/ociswap/scrypto-testenv/types"
)

// Simulator defines the capability surface the test harness consumes.
// Ledger is the single concrete implementation; the interface documents the
// contract and keeps the harness backend-agnostic.
type Simulator interface {
	CreateAccount() (PublicKey, types.Address, error)
	CreateFungibleResource(supply types.Decimal, divisibility uint8, recipient types.Address, metadata map[string]string) (types.Address, error)
	CreateNonFungibleResource(recipient types.Address) (types.Address, error)

	PublishPackage(artifact *CompiledArtifact, ownerBadge *types.Address) (types.Address, error)

	PreviewManifest(m *manifest.Manifest, signers []PublicKey) (*types.Outcome, error)
	ExecuteManifest(m *manifest.Manifest, signers []PublicKey) (*types.Outcome, error)

	Snapshot() ([]byte, error)

	FeeResource() types.Address
	BalanceOf(account types.Address, resource types.Address) types.Decimal
	NonFungibleIDs(account types.Address, resource types.Address) []types.NonFungibleLocalID
	Metadata(resource types.Address, key string) (string, bool)
	ComponentState(component types.Address, out any) error
}

var _ Simulator = (*Ledger)(nil)
