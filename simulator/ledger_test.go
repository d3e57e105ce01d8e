package simulator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ociswap/scrypto-testenv/simulator"
	"github.com/ociswap/scrypto-testenv/types"
)

func TestCreateAccount(t *testing.T) {

	t.Parallel()

	ledger := simulator.New()

	key, account, err := ledger.CreateAccount()
	require.NoError(t, err)

	assert.Equal(t, types.AddressKindAccount, account.Kind())
	assert.NotEqual(t, simulator.PublicKey{}, key)
	assert.Equal(t,
		simulator.InitialAccountBalance,
		ledger.BalanceOf(account, ledger.FeeResource()),
	)
}

func TestDeterministicBootstrap(t *testing.T) {

	t.Parallel()

	ledger1 := simulator.New()
	ledger2 := simulator.New()

	key1, account1, err := ledger1.CreateAccount()
	require.NoError(t, err)
	key2, account2, err := ledger2.CreateAccount()
	require.NoError(t, err)

	assert.Equal(t, account1, account2)
	assert.Equal(t, key1, key2)

	resource1, err := ledger1.CreateFungibleResource(types.NewDecimal(100), 18, account1, map[string]string{"symbol": "T"})
	require.NoError(t, err)
	resource2, err := ledger2.CreateFungibleResource(types.NewDecimal(100), 18, account2, map[string]string{"symbol": "T"})
	require.NoError(t, err)

	assert.Equal(t, resource1, resource2)
}

func TestCreateFungibleResource(t *testing.T) {

	t.Parallel()

	ledger := simulator.New()
	_, account, err := ledger.CreateAccount()
	require.NoError(t, err)

	resource, err := ledger.CreateFungibleResource(types.MaxSupply, 18, account, map[string]string{
		"name":   "Test token A",
		"symbol": "A",
	})
	require.NoError(t, err)

	assert.Equal(t, types.AddressKindResource, resource.Kind())
	assert.Equal(t, types.MaxSupply, ledger.BalanceOf(account, resource))

	symbol, ok := ledger.Metadata(resource, "symbol")
	require.True(t, ok)
	assert.Equal(t, "A", symbol)
}

func TestCreateNonFungibleResource(t *testing.T) {

	t.Parallel()

	ledger := simulator.New()
	_, account, err := ledger.CreateAccount()
	require.NoError(t, err)

	resource, err := ledger.CreateNonFungibleResource(account)
	require.NoError(t, err)

	assert.Equal(t, types.NFTIDs(1, 2, 3), ledger.NonFungibleIDs(account, resource))
}

func TestSnapshotIndependence(t *testing.T) {

	t.Parallel()

	ledger := simulator.New()
	_, account, err := ledger.CreateAccount()
	require.NoError(t, err)
	resource, err := ledger.CreateFungibleResource(types.NewDecimal(100), 18, account, nil)
	require.NoError(t, err)

	data, err := ledger.Snapshot()
	require.NoError(t, err)

	restored, err := simulator.FromSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, types.NewDecimal(100), restored.BalanceOf(account, resource))

	// mutating the original must not leak into the restored copy
	_, other, err := ledger.CreateAccount()
	require.NoError(t, err)
	assert.Equal(t, types.Decimal{}, restored.BalanceOf(other, restored.FeeResource()))

	// and the restored copy continues the allocation sequence identically
	_, restoredOther, err := restored.CreateAccount()
	require.NoError(t, err)
	assert.Equal(t, other, restoredOther)
}
