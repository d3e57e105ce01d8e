package helloswap_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testenv "github.com/ociswap/scrypto-testenv"
	"github.com/ociswap/scrypto-testenv/blueprints/helloswap"
	"github.com/ociswap/scrypto-testenv/manifest"
	"github.com/ociswap/scrypto-testenv/types"
)

var session = testenv.NewSession(testenv.WithLogger(zerolog.Nop()))

// helper drives one pool instance through manifest construction, mirroring
// how a contract test suite is expected to use the harness.
type helper struct {
	t   *testing.T
	env *testenv.TestEnvironment

	pool  types.Address
	price types.Decimal
}

func newHelper(t *testing.T) *helper {
	env, err := session.Environment(map[string]string{"helloswap": helloswap.Location})
	require.NoError(t, err)
	return &helper{t: t, env: env}
}

// instantiate appends the pool instantiation call: withdraw the y-side
// reserve, bucket it and hand it to the blueprint function.
func (h *helper) instantiate(xAddress types.Address, yAddress types.Address, yAmount types.Decimal, price types.Decimal) {
	packageAddress, err := h.env.PackageAddress("helloswap")
	require.NoError(h.t, err)

	bucketName := h.env.Name("y_reserve")
	h.env.Builder.
		WithdrawFromAccount(h.env.Account, yAddress, yAmount).
		TakeFromWorktop(yAddress, yAmount, bucketName).
		CallFunction(packageAddress, helloswap.BlueprintName, "instantiate",
			xAddress, manifest.Bucket(bucketName), price)
	h.env.NewInstruction("instantiate", 3, 2)
}

// instantiateDefault executes a successful instantiation on the canonical
// (x, y) pair and remembers the pool address for subsequent swaps.
func (h *helper) instantiateDefault(yAmount types.Decimal, price types.Decimal) *testenv.Receipt {
	h.instantiate(h.env.XAddress, h.env.YAddress, yAmount, price)
	receipt, err := h.env.ExecuteExpectSuccess(false)
	require.NoError(h.t, err)

	outputs, err := testenv.Outputs[helloswap.InstantiateOutput](receipt, "instantiate")
	require.NoError(h.t, err)
	require.Len(h.t, outputs, 1)
	assert.Equal(h.t, price, outputs[0].Price)

	h.pool = outputs[0].Component
	h.price = price
	return receipt
}

// swap appends a swap call feeding inputAmount of the x-side resource into
// the pool.
func (h *helper) swap(inputAmount types.Decimal) {
	bucketName := h.env.Name("x_input")
	h.env.Builder.
		WithdrawFromAccount(h.env.Account, h.env.XAddress, inputAmount).
		TakeFromWorktop(h.env.XAddress, inputAmount, bucketName).
		CallMethod(h.pool, "swap", manifest.Bucket(bucketName))
	h.env.NewInstruction("swap", 3, 2)
}

// swapExpectSuccess executes a swap and asserts the buckets it returned to
// the worktop: the y-side output first, then the unconsumed x remainder.
// The remainder bucket is reported even when it is empty.
func (h *helper) swapExpectSuccess(inputAmount types.Decimal, expectedOutput types.Decimal, expectedRemainder types.Decimal) *testenv.Receipt {
	h.swap(inputAmount)
	receipt, err := h.env.ExecuteExpectSuccess(false)
	require.NoError(h.t, err)

	buckets, err := receipt.OutputBuckets("swap")
	require.NoError(h.t, err)
	assert.Equal(h.t, [][]types.ResourceSpecifier{{
		types.NewAmountSpecifier(h.env.YAddress, expectedOutput),
		types.NewAmountSpecifier(h.env.XAddress, expectedRemainder),
	}}, buckets)
	return receipt
}

// swapExpectFailure executes a swap and asserts it was rolled back.
func (h *helper) swapExpectFailure(inputAmount types.Decimal) *testenv.Receipt {
	h.swap(inputAmount)
	receipt, err := h.env.ExecuteExpectFailure(false)
	require.NoError(h.t, err)
	return receipt
}
