// Package simulator provides an in-memory ledger execution simulator:
// accounts, fungible and non-fungible resources, native blueprint packages
// and transaction manifest execution with preview support.
//
// The package exposes the Simulator capability interface consumed by the
// test harness, with Ledger as its single concrete implementation.
package simulator

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ociswap/scrypto-testenv/types"
)

// InitialAccountBalance is the fee-resource balance granted to every newly
// created account.
var InitialAccountBalance = types.NewDecimal(10000)

// executionFee is the flat fee charged per committed or failed manifest.
// The locked amount above it is released back to the account.
var executionFee = types.NewDecimal(10)

// A PublicKey identifies the owner of an account. Keys are derived
// deterministically from the ledger's allocation sequence.
type PublicKey [33]byte

func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

func (k PublicKey) MarshalBinary() ([]byte, error) {
	return k[:], nil
}

func (k *PublicKey) UnmarshalBinary(data []byte) error {
	if len(data) != len(k) {
		return errors.Errorf("invalid public key length %d", len(data))
	}
	copy(k[:], data)
	return nil
}

// A VaultID identifies a vault holding resources on behalf of an account or
// component.
type VaultID uint64

type vault struct {
	Resource types.Address
	Amount   types.Decimal
	IDs      []types.NonFungibleLocalID
}

type account struct {
	Address   types.Address
	PublicKey PublicKey
	Vaults    map[types.Address]VaultID
}

type resource struct {
	Address      types.Address
	Divisibility uint8
	NonFungible  bool
	Supply       types.Decimal
	Metadata     map[string]string
}

type pkg struct {
	Address    types.Address
	Location   string
	CodeHash   []byte
	OwnerBadge *types.Address
	Blueprints []string
}

type component struct {
	Address   types.Address
	Package   types.Address
	Blueprint string
	State     []byte
}

// A Ledger is an in-memory simulator instance. It is not internally
// synchronized; a single instance is contracted for exclusive use by one
// logical test at a time.
type Ledger struct {
	logger zerolog.Logger

	addressNonce uint64
	keyNonce     uint64
	vaultNonce   uint64

	feeResource types.Address

	accounts   map[types.Address]*account
	resources  map[types.Address]*resource
	packages   map[types.Address]*pkg
	components map[types.Address]*component
	vaults     map[VaultID]*vault
}

// Option is a function applying a change to the ledger configuration.
type Option func(*Ledger)

// WithLogger sets the ledger's logger. The default logger discards all
// output.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New instantiates an empty ledger with the fee resource created at genesis.
// Bootstrap is deterministic: two fresh ledgers allocate identical addresses
// for identical call sequences.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		logger:     zerolog.Nop(),
		accounts:   make(map[types.Address]*account),
		resources:  make(map[types.Address]*resource),
		packages:   make(map[types.Address]*pkg),
		components: make(map[types.Address]*component),
		vaults:     make(map[VaultID]*vault),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.feeResource = l.newResource(0, false, types.Decimal{}, map[string]string{
		"name":   "Simulator Token",
		"symbol": "SIM",
	})
	return l
}

func (l *Ledger) newAddress(kind types.AddressKind) types.Address {
	address := types.NewAddress(kind, l.addressNonce)
	l.addressNonce++
	return address
}

func (l *Ledger) newPublicKey() PublicKey {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], l.keyNonce)
	l.keyNonce++

	digest := sha256.Sum256(seed[:])
	var key PublicKey
	key[0] = 0x02
	copy(key[1:], digest[:])
	return key
}

func (l *Ledger) newVault(resourceAddress types.Address) VaultID {
	l.vaultNonce++
	id := VaultID(l.vaultNonce)
	l.vaults[id] = &vault{Resource: resourceAddress}
	return id
}

func (l *Ledger) newResource(divisibility uint8, nonFungible bool, supply types.Decimal, metadata map[string]string) types.Address {
	address := l.newAddress(types.AddressKindResource)
	meta := make(map[string]string, len(metadata))
	for key, value := range metadata {
		meta[key] = value
	}
	l.resources[address] = &resource{
		Address:      address,
		Divisibility: divisibility,
		NonFungible:  nonFungible,
		Supply:       supply,
		Metadata:     meta,
	}
	return address
}

// FeeResource returns the address of the resource fees are paid in.
func (l *Ledger) FeeResource() types.Address {
	return l.feeResource
}

// CreateAccount allocates a new account funded with the initial fee-resource
// balance and returns its owner key and address.
func (l *Ledger) CreateAccount() (PublicKey, types.Address, error) {
	key := l.newPublicKey()
	address := l.newAddress(types.AddressKindAccount)

	acct := &account{
		Address:   address,
		PublicKey: key,
		Vaults:    make(map[types.Address]VaultID),
	}
	l.accounts[address] = acct

	vaultID := l.newVault(l.feeResource)
	l.vaults[vaultID].Amount = InitialAccountBalance
	acct.Vaults[l.feeResource] = vaultID

	fee := l.resources[l.feeResource]
	fee.Supply = fee.Supply.Add(InitialAccountBalance)

	l.logger.Debug().Stringer("address", address).Msg("created account")
	return key, address, nil
}

// CreateFungibleResource mints a new fungible resource and deposits the full
// initial supply into the recipient account.
func (l *Ledger) CreateFungibleResource(
	supply types.Decimal,
	divisibility uint8,
	recipient types.Address,
	metadata map[string]string,
) (types.Address, error) {
	if supply.IsNegative() {
		return types.Address{}, errors.Errorf("negative initial supply %s", supply)
	}
	acct, ok := l.accounts[recipient]
	if !ok {
		return types.Address{}, errors.Errorf("recipient account %s does not exist", recipient)
	}

	address := l.newResource(divisibility, false, supply, metadata)
	vaultID := l.newVault(address)
	l.vaults[vaultID].Amount = supply
	acct.Vaults[address] = vaultID

	l.logger.Debug().
		Stringer("address", address).
		Str("supply", supply.String()).
		Msg("created fungible resource")
	return address, nil
}

// CreateNonFungibleResource mints a new non-fungible collection with integer
// local ids 1 through 3 and deposits them into the recipient account.
func (l *Ledger) CreateNonFungibleResource(recipient types.Address) (types.Address, error) {
	acct, ok := l.accounts[recipient]
	if !ok {
		return types.Address{}, errors.Errorf("recipient account %s does not exist", recipient)
	}

	address := l.newResource(0, true, types.NewDecimal(3), nil)
	vaultID := l.newVault(address)
	l.vaults[vaultID].IDs = types.NFTIDs(1, 2, 3)
	acct.Vaults[address] = vaultID

	l.logger.Debug().Stringer("address", address).Msg("created non-fungible resource")
	return address, nil
}

// PublishPackage publishes a compiled artifact and returns the package
// address. An optional owner badge authorizes future package updates.
func (l *Ledger) PublishPackage(artifact *CompiledArtifact, ownerBadge *types.Address) (types.Address, error) {
	if artifact == nil {
		return types.Address{}, errors.New("nil artifact")
	}
	if _, ok := registeredPackage(artifact.Location); !ok {
		return types.Address{}, errors.Errorf("no package registered at location %q", artifact.Location)
	}

	address := l.newAddress(types.AddressKindPackage)
	l.packages[address] = &pkg{
		Address:    address,
		Location:   artifact.Location,
		CodeHash:   artifact.Code,
		OwnerBadge: ownerBadge,
		Blueprints: artifact.Definition.Blueprints,
	}

	l.logger.Debug().
		Stringer("address", address).
		Str("location", artifact.Location).
		Msg("published package")
	return address, nil
}

// BalanceOf returns the fungible balance an account holds of a resource,
// zero if the account has no vault for it.
func (l *Ledger) BalanceOf(accountAddress types.Address, resourceAddress types.Address) types.Decimal {
	acct, ok := l.accounts[accountAddress]
	if !ok {
		return types.Decimal{}
	}
	vaultID, ok := acct.Vaults[resourceAddress]
	if !ok {
		return types.Decimal{}
	}
	return l.vaults[vaultID].Amount
}

// NonFungibleIDs returns the sorted non-fungible ids an account holds of a
// resource.
func (l *Ledger) NonFungibleIDs(accountAddress types.Address, resourceAddress types.Address) []types.NonFungibleLocalID {
	acct, ok := l.accounts[accountAddress]
	if !ok {
		return nil
	}
	vaultID, ok := acct.Vaults[resourceAddress]
	if !ok {
		return nil
	}
	ids := make([]types.NonFungibleLocalID, len(l.vaults[vaultID].IDs))
	copy(ids, l.vaults[vaultID].IDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Metadata returns a metadata entry of a resource.
func (l *Ledger) Metadata(resourceAddress types.Address, key string) (string, bool) {
	res, ok := l.resources[resourceAddress]
	if !ok {
		return "", false
	}
	value, ok := res.Metadata[key]
	return value, ok
}

// ComponentState decodes the state of an instantiated component.
func (l *Ledger) ComponentState(address types.Address, out any) error {
	comp, ok := l.components[address]
	if !ok {
		return errors.Errorf("component %s does not exist", address)
	}
	return decodeState(comp.State, out)
}

func (l *Ledger) resolveBlueprint(packageAddress types.Address, name string) (*Blueprint, error) {
	p, ok := l.packages[packageAddress]
	if !ok {
		return nil, errors.Errorf("package %s does not exist", packageAddress)
	}
	blueprints, ok := registeredPackage(p.Location)
	if !ok {
		return nil, errors.Errorf("no package registered at location %q", p.Location)
	}
	for _, blueprint := range blueprints {
		if blueprint.Name == name {
			return blueprint, nil
		}
	}
	return nil, errors.Errorf("blueprint %q does not exist in package %s", name, packageAddress)
}

func (l *Ledger) depositToAccount(accountAddress types.Address, resourceAddress types.Address, amount types.Decimal, ids []types.NonFungibleLocalID) error {
	acct, ok := l.accounts[accountAddress]
	if !ok {
		return errors.Errorf("account %s does not exist", accountAddress)
	}
	vaultID, ok := acct.Vaults[resourceAddress]
	if !ok {
		vaultID = l.newVault(resourceAddress)
		acct.Vaults[resourceAddress] = vaultID
	}
	v := l.vaults[vaultID]
	v.Amount = v.Amount.Add(amount)
	v.IDs = append(v.IDs, ids...)
	return nil
}

func (l *Ledger) withdrawFromAccount(accountAddress types.Address, resourceAddress types.Address, amount types.Decimal) error {
	acct, ok := l.accounts[accountAddress]
	if !ok {
		return errors.Errorf("account %s does not exist", accountAddress)
	}
	if amount.IsNegative() {
		return errors.Errorf("cannot withdraw negative amount %s", amount)
	}
	vaultID, ok := acct.Vaults[resourceAddress]
	if !ok {
		return errors.Errorf("account %s holds no %s", accountAddress, resourceAddress)
	}
	v := l.vaults[vaultID]
	if v.Amount.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance: account %s holds %s of %s, requested %s",
			accountAddress, v.Amount, resourceAddress, amount)
	}
	v.Amount = v.Amount.Sub(amount)
	return nil
}

func (l *Ledger) withdrawNonFungiblesFromAccount(accountAddress types.Address, resourceAddress types.Address, ids []types.NonFungibleLocalID) error {
	acct, ok := l.accounts[accountAddress]
	if !ok {
		return errors.Errorf("account %s does not exist", accountAddress)
	}
	vaultID, ok := acct.Vaults[resourceAddress]
	if !ok {
		return errors.Errorf("account %s holds no %s", accountAddress, resourceAddress)
	}
	v := l.vaults[vaultID]
	for _, id := range ids {
		found := false
		for i, held := range v.IDs {
			if held == id {
				v.IDs = append(v.IDs[:i], v.IDs[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("account %s does not hold id %d of %s", accountAddress, id, resourceAddress)
		}
	}
	return nil
}
