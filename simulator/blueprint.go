package simulator

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/ociswap/scrypto-testenv/types"
)

// A CallContext exposes ledger capabilities to blueprint code during one
// invocation: vault management, component instantiation and resource
// minting. All effects apply to the transaction's working state and are only
// committed if the whole manifest succeeds.
type CallContext struct {
	ex  *executionState
	pkg types.Address
}

// NewVault creates an empty vault for the given resource.
func (c *CallContext) NewVault(resourceAddress types.Address) (VaultID, error) {
	res, ok := c.ex.ledger.resources[resourceAddress]
	if !ok {
		return 0, errors.Errorf("resource %s does not exist", resourceAddress)
	}
	id := c.ex.ledger.newVault(res.Address)
	return id, nil
}

// NewVaultWithBucket creates a vault holding the bucket's contents.
func (c *CallContext) NewVaultWithBucket(b *Bucket) (VaultID, error) {
	id, err := c.NewVault(b.Resource())
	if err != nil {
		return 0, err
	}
	return id, c.VaultPut(id, b)
}

// VaultPut moves a bucket's contents into a vault.
func (c *CallContext) VaultPut(id VaultID, b *Bucket) error {
	v, ok := c.ex.ledger.vaults[id]
	if !ok {
		return errors.Errorf("vault %d does not exist", id)
	}
	if v.Resource != b.Resource() {
		return errors.Errorf("cannot put %s into vault of %s", b.Resource(), v.Resource)
	}
	v.Amount = v.Amount.Add(b.Amount())
	v.IDs = append(v.IDs, b.IDs()...)
	return nil
}

// VaultTake removes a fungible amount from a vault into a new bucket.
func (c *CallContext) VaultTake(id VaultID, amount types.Decimal) (*Bucket, error) {
	v, ok := c.ex.ledger.vaults[id]
	if !ok {
		return nil, errors.Errorf("vault %d does not exist", id)
	}
	if v.Amount.Cmp(amount) < 0 {
		return nil, errors.Errorf("insufficient vault balance: holds %s of %s, requested %s",
			v.Amount, v.Resource, amount)
	}
	v.Amount = v.Amount.Sub(amount)
	return &Bucket{resource: v.Resource, amount: amount}, nil
}

// VaultBalance returns the fungible amount a vault holds.
func (c *CallContext) VaultBalance(id VaultID) (types.Decimal, error) {
	v, ok := c.ex.ledger.vaults[id]
	if !ok {
		return types.Decimal{}, errors.Errorf("vault %d does not exist", id)
	}
	return v.Amount, nil
}

// NewComponent instantiates a component of the calling package with the
// given initial state.
func (c *CallContext) NewComponent(blueprint string, state any) (types.Address, error) {
	data, err := encodeState(state)
	if err != nil {
		return types.Address{}, err
	}
	address := c.ex.ledger.newAddress(types.AddressKindComponent)
	c.ex.ledger.components[address] = &component{
		Address:   address,
		Package:   c.pkg,
		Blueprint: blueprint,
		State:     data,
	}
	c.ex.newComponents = append(c.ex.newComponents, address)
	return address, nil
}

// MintFungible creates a new fungible resource and returns its entire
// initial supply in a bucket.
func (c *CallContext) MintFungible(supply types.Decimal, divisibility uint8, metadata map[string]string) (*Bucket, error) {
	if supply.IsNegative() {
		return nil, errors.Errorf("negative initial supply %s", supply)
	}
	address := c.ex.ledger.newResource(divisibility, false, supply, metadata)
	c.ex.newResources = append(c.ex.newResources, address)
	return &Bucket{resource: address, amount: supply}, nil
}

// Log appends a message to the transaction log.
func (c *CallContext) Log(message string) {
	c.ex.logs = append(c.ex.logs, message)
}

// A Component is the handle blueprint methods receive for the component they
// are invoked on.
type Component struct {
	address types.Address
	record  *component
}

func (c *Component) Address() types.Address {
	return c.address
}

// DecodeState decodes the component state into the given value.
func (c *Component) DecodeState(out any) error {
	return decodeState(c.record.State, out)
}

// SetState replaces the component state.
func (c *Component) SetState(state any) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	c.record.State = data
	return nil
}

func encodeState(state any) ([]byte, error) {
	data, err := cbor.Marshal(state)
	if err != nil {
		return nil, errors.Wrap(err, "encoding component state")
	}
	return data, nil
}

func decodeState(data []byte, out any) error {
	return errors.Wrap(cbor.Unmarshal(data, out), "decoding component state")
}

// ArgAddress asserts that argument i is an address.
func ArgAddress(args []any, i int) (types.Address, error) {
	if i >= len(args) {
		return types.Address{}, errors.Errorf("missing argument %d", i)
	}
	address, ok := args[i].(types.Address)
	if !ok {
		return types.Address{}, errors.Errorf("argument %d is %T, expected address", i, args[i])
	}
	return address, nil
}

// ArgDecimal asserts that argument i is a decimal.
func ArgDecimal(args []any, i int) (types.Decimal, error) {
	if i >= len(args) {
		return types.Decimal{}, errors.Errorf("missing argument %d", i)
	}
	d, ok := args[i].(types.Decimal)
	if !ok {
		return types.Decimal{}, errors.Errorf("argument %d is %T, expected decimal", i, args[i])
	}
	return d, nil
}

// ArgBucket asserts that argument i is a bucket.
func ArgBucket(args []any, i int) (*Bucket, error) {
	if i >= len(args) {
		return nil, errors.Errorf("missing argument %d", i)
	}
	b, ok := args[i].(*Bucket)
	if !ok {
		return nil, errors.Errorf("argument %d is %T, expected bucket", i, args[i])
	}
	return b, nil
}
