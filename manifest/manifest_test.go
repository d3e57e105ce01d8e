package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ociswap/scrypto-testenv/manifest"
	"github.com/ociswap/scrypto-testenv/types"
)

func TestBuilder(t *testing.T) {

	t.Parallel()

	account := types.NewAddress(types.AddressKindAccount, 1)
	resource := types.NewAddress(types.AddressKindResource, 2)
	pkg := types.NewAddress(types.AddressKindPackage, 3)

	builder := manifest.NewBuilder().
		LockFee(account, types.NewDecimal(5000)).
		WithdrawFromAccount(account, resource, types.NewDecimal(10)).
		TakeFromWorktop(resource, types.NewDecimal(10), "input").
		CallFunction(pkg, "Pool", "instantiate", resource, manifest.Bucket("input")).
		DepositBatch(account)

	assert.Equal(t, 5, builder.Len())

	m := builder.Build()
	require.Len(t, m.Instructions, 5)

	assert.Equal(t, manifest.LockFee{Account: account, Amount: types.NewDecimal(5000)}, m.Instructions[0])
	assert.Equal(t,
		manifest.TakeFromWorktop{Resource: resource, Amount: types.NewDecimal(10), BucketName: "input"},
		m.Instructions[2],
	)

	call, ok := m.Instructions[3].(manifest.CallFunction)
	require.True(t, ok)
	assert.Equal(t, "instantiate", call.Function)
	assert.Equal(t, []any{resource, manifest.Bucket("input")}, call.Args)
}
