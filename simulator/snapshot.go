package simulator

import (
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ociswap/scrypto-testenv/types"
)

type accountVaultRecord struct {
	Resource types.Address
	Vault    VaultID
}

type accountRecord struct {
	Address   types.Address
	PublicKey PublicKey
	Vaults    []accountVaultRecord
}

type vaultRecord struct {
	ID       VaultID
	Resource types.Address
	Amount   types.Decimal
	IDs      []types.NonFungibleLocalID
}

type ledgerSnapshot struct {
	AddressNonce uint64
	KeyNonce     uint64
	VaultNonce   uint64
	FeeResource  types.Address
	Accounts     []accountRecord
	Resources    []resource
	Packages     []pkg
	Components   []component
	Vaults       []vaultRecord
}

// Snapshot serializes the complete ledger state. The returned bytes are an
// immutable capture: reconstructing from them yields a ledger with no
// connection to this instance.
func (l *Ledger) Snapshot() ([]byte, error) {
	snapshot := ledgerSnapshot{
		AddressNonce: l.addressNonce,
		KeyNonce:     l.keyNonce,
		VaultNonce:   l.vaultNonce,
		FeeResource:  l.feeResource,
	}

	for _, acct := range l.accounts {
		record := accountRecord{
			Address:   acct.Address,
			PublicKey: acct.PublicKey,
		}
		for res, vaultID := range acct.Vaults {
			record.Vaults = append(record.Vaults, accountVaultRecord{Resource: res, Vault: vaultID})
		}
		sort.Slice(record.Vaults, func(i, j int) bool {
			return record.Vaults[i].Resource.Compare(record.Vaults[j].Resource) < 0
		})
		snapshot.Accounts = append(snapshot.Accounts, record)
	}
	sort.Slice(snapshot.Accounts, func(i, j int) bool {
		return snapshot.Accounts[i].Address.Compare(snapshot.Accounts[j].Address) < 0
	})

	for _, res := range l.resources {
		snapshot.Resources = append(snapshot.Resources, *res)
	}
	sort.Slice(snapshot.Resources, func(i, j int) bool {
		return snapshot.Resources[i].Address.Compare(snapshot.Resources[j].Address) < 0
	})

	for _, p := range l.packages {
		snapshot.Packages = append(snapshot.Packages, *p)
	}
	sort.Slice(snapshot.Packages, func(i, j int) bool {
		return snapshot.Packages[i].Address.Compare(snapshot.Packages[j].Address) < 0
	})

	for _, comp := range l.components {
		snapshot.Components = append(snapshot.Components, *comp)
	}
	sort.Slice(snapshot.Components, func(i, j int) bool {
		return snapshot.Components[i].Address.Compare(snapshot.Components[j].Address) < 0
	})

	for id, v := range l.vaults {
		snapshot.Vaults = append(snapshot.Vaults, vaultRecord{
			ID:       id,
			Resource: v.Resource,
			Amount:   v.Amount,
			IDs:      append([]types.NonFungibleLocalID(nil), v.IDs...),
		})
	}
	sort.Slice(snapshot.Vaults, func(i, j int) bool {
		return snapshot.Vaults[i].ID < snapshot.Vaults[j].ID
	})

	data, err := cbor.Marshal(&snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "encoding ledger snapshot")
	}
	return data, nil
}

// FromSnapshot reconstructs a ledger from a state capture produced by
// Snapshot. Native blueprint code is rebound lazily through the package
// registry; only source locations are part of the capture.
func FromSnapshot(data []byte, opts ...Option) (*Ledger, error) {
	var snapshot ledgerSnapshot
	if err := cbor.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrap(err, "decoding ledger snapshot")
	}

	l := &Ledger{
		logger:       zerolog.Nop(),
		addressNonce: snapshot.AddressNonce,
		keyNonce:     snapshot.KeyNonce,
		vaultNonce:   snapshot.VaultNonce,
		feeResource:  snapshot.FeeResource,
		accounts:     make(map[types.Address]*account, len(snapshot.Accounts)),
		resources:    make(map[types.Address]*resource, len(snapshot.Resources)),
		packages:     make(map[types.Address]*pkg, len(snapshot.Packages)),
		components:   make(map[types.Address]*component, len(snapshot.Components)),
		vaults:       make(map[VaultID]*vault, len(snapshot.Vaults)),
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, record := range snapshot.Accounts {
		acct := &account{
			Address:   record.Address,
			PublicKey: record.PublicKey,
			Vaults:    make(map[types.Address]VaultID, len(record.Vaults)),
		}
		for _, entry := range record.Vaults {
			acct.Vaults[entry.Resource] = entry.Vault
		}
		l.accounts[record.Address] = acct
	}
	for i := range snapshot.Resources {
		res := snapshot.Resources[i]
		l.resources[res.Address] = &res
	}
	for i := range snapshot.Packages {
		p := snapshot.Packages[i]
		l.packages[p.Address] = &p
	}
	for i := range snapshot.Components {
		comp := snapshot.Components[i]
		l.components[comp.Address] = &comp
	}
	for _, record := range snapshot.Vaults {
		l.vaults[record.ID] = &vault{
			Resource: record.Resource,
			Amount:   record.Amount,
			IDs:      record.IDs,
		}
	}
	return l, nil
}

// fork clones the ledger through a snapshot round trip, yielding a fully
// independent working copy for manifest execution.
func (l *Ledger) fork() (*Ledger, error) {
	data, err := l.Snapshot()
	if err != nil {
		return nil, err
	}
	return FromSnapshot(data, WithLogger(l.logger))
}

// adopt replaces the ledger's state with a fork's state.
func (l *Ledger) adopt(fork *Ledger) {
	l.addressNonce = fork.addressNonce
	l.keyNonce = fork.keyNonce
	l.vaultNonce = fork.vaultNonce
	l.feeResource = fork.feeResource
	l.accounts = fork.accounts
	l.resources = fork.resources
	l.packages = fork.packages
	l.components = fork.components
	l.vaults = fork.vaults
}
