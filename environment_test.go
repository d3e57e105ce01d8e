package testenv_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testenv "github.com/ociswap/scrypto-testenv"
	"github.com/ociswap/scrypto-testenv/blueprints/hello"
	"github.com/ociswap/scrypto-testenv/simulator"
	"github.com/ociswap/scrypto-testenv/types"
)

func TestBootstrap(t *testing.T) {

	t.Parallel()

	env, err := session.Environment(nil)
	require.NoError(t, err)

	assert.Equal(t, types.AddressKindAccount, env.Account.Kind())
	assert.Equal(t, types.AddressKindAccount, env.DappDefinition.Kind())
	assert.NotEqual(t, env.Account, env.DappDefinition)
	assert.NotEqual(t, simulator.PublicKey{}, env.PublicKey)

	// the (x, y) pair is the canonically sorted (a, b) pair
	assert.True(t, env.XAddress.Compare(env.YAddress) < 0)
	assert.ElementsMatch(t,
		[]types.Address{env.AAddress, env.BAddress},
		[]types.Address{env.XAddress, env.YAddress},
	)

	assert.Equal(t, types.NewDecimal(1), env.Ledger.BalanceOf(env.Account, env.AdminBadgeAddress))
	assert.Equal(t, types.MaxSupply, env.Ledger.BalanceOf(env.Account, env.AAddress))
	assert.Equal(t, types.MaxSupply, env.Ledger.BalanceOf(env.Account, env.BAddress))
	assert.Equal(t, types.NewDecimal(1_000_000_000), env.Ledger.BalanceOf(env.Account, env.UAddress))
	assert.Equal(t, types.NewDecimal(10_000_000), env.Ledger.BalanceOf(env.Account, env.VAddress))
	assert.Equal(t, types.NFTIDs(1, 2, 3), env.Ledger.NonFungibleIDs(env.Account, env.JNFTAddress))
	assert.Equal(t, types.NFTIDs(1, 2, 3), env.Ledger.NonFungibleIDs(env.Account, env.KNFTAddress))

	symbol, ok := env.Ledger.Metadata(env.AAddress, "symbol")
	require.True(t, ok)
	assert.Equal(t, "A", symbol)

	// the builder is pre-seeded with the fee lock
	assert.Equal(t, 1, env.Builder.Len())
	assert.Empty(t, env.PackageAddresses)
}

func TestPackageAddress(t *testing.T) {

	t.Parallel()

	env, err := session.Environment(map[string]string{"Hello": hello.Location})
	require.NoError(t, err)

	address, err := env.PackageAddress("Hello")
	require.NoError(t, err)
	assert.Equal(t, types.AddressKindPackage, address.Kind())

	_, err = env.PackageAddress("Unregistered")
	require.Error(t, err)

	var notFound *testenv.PackageNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "Unregistered", notFound.Name)
	var marker testenv.NotFoundError
	assert.True(t, errors.As(err, &marker))
}

func TestInstructionTracking(t *testing.T) {

	t.Parallel()

	env, err := session.Environment(nil)
	require.NoError(t, err)

	// counter starts at 1, positions are counter + offset
	require.Equal(t, 1, env.Tracker.Counter())
	env.NewInstruction("a", 2, 1)
	require.Equal(t, 3, env.Tracker.Counter())
	env.NewInstruction("a", 3, 2)
	require.Equal(t, 6, env.Tracker.Counter())
	env.NewInstruction("b", 1, 0)
	require.Equal(t, 7, env.Tracker.Counter())

	receipt, err := env.Execute(false)
	require.NoError(t, err)

	ids, err := receipt.InstructionIDs("a")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, ids)

	ids, err = receipt.InstructionIDs("b")
	require.NoError(t, err)
	assert.Equal(t, []int{6}, ids)

	// tracking resets at the execute boundary
	assert.Equal(t, 1, env.Tracker.Counter())
	assert.Equal(t, 1, env.Builder.Len())

	next, err := env.Execute(false)
	require.NoError(t, err)
	_, err = next.InstructionIDs("a")
	require.Error(t, err)
}

func TestOutputsLabelNotFound(t *testing.T) {

	t.Parallel()

	env, err := session.Environment(nil)
	require.NoError(t, err)

	receipt, err := env.Execute(false)
	require.NoError(t, err)

	_, err = testenv.Outputs[int](receipt, "unregistered_label")
	require.Error(t, err)

	var notFound *testenv.LabelNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "unregistered_label", notFound.Label)

	_, err = receipt.OutputBuckets("unregistered_label")
	require.True(t, errors.As(err, &notFound))
}

func TestExecuteExpect(t *testing.T) {

	t.Parallel()

	t.Run("success", func(t *testing.T) {

		t.Parallel()

		env, err := session.Environment(nil)
		require.NoError(t, err)

		receipt, err := env.ExecuteExpectSuccess(false)
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeCommittedSuccess, receipt.ExecutionReceipt.Class)
	})

	t.Run("mismatch carries the full outcome", func(t *testing.T) {

		t.Parallel()

		env, err := session.Environment(nil)
		require.NoError(t, err)

		_, err = env.ExecuteExpectFailure(false)
		require.Error(t, err)

		var mismatch *testenv.CommitOutcomeMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, types.OutcomeCommittedFailure, mismatch.Expected)
		assert.Equal(t, types.OutcomeCommittedSuccess, mismatch.Actual)
		require.NotNil(t, mismatch.Outcome)
		assert.Equal(t, types.OutcomeCommittedSuccess, mismatch.Outcome.Class)
	})

	t.Run("failure", func(t *testing.T) {

		t.Parallel()

		env, err := session.Environment(nil)
		require.NoError(t, err)

		// the dapp definition account's key is not among the signers
		env.Builder.WithdrawFromAccount(env.DappDefinition, env.Ledger.FeeResource(), types.NewDecimal(1))
		env.NewInstruction("withdraw", 1, 0)

		receipt, err := env.ExecuteExpectFailure(false)
		require.NoError(t, err)
		assert.Contains(t, receipt.ExecutionReceipt.ErrorMessage, "not authorized")
	})

	t.Run("rejection", func(t *testing.T) {

		t.Parallel()

		env, err := session.Environment(nil)
		require.NoError(t, err)

		// move the fee balance below the standard lock, then execute again
		feeResource := env.Ledger.FeeResource()
		balance := env.Ledger.BalanceOf(env.Account, feeResource)
		env.Builder.
			WithdrawFromAccount(env.Account, feeResource, balance.Sub(types.NewDecimal(1000))).
			DepositBatch(env.DappDefinition)
		env.NewInstruction("drain", 2, 0)
		_, err = env.ExecuteExpectSuccess(false)
		require.NoError(t, err)

		_, err = env.ExecuteExpectRejection(false)
		require.NoError(t, err)
	})
}
