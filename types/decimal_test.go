package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ociswap/scrypto-testenv/types"
)

func TestDecimalFromString(t *testing.T) {

	t.Parallel()

	tests := []struct {
		input    string
		expected types.Decimal
	}{
		{"0", types.NewDecimal(0)},
		{"10", types.NewDecimal(10)},
		{"-1", types.NewDecimal(-1)},
		{"-0", types.NewDecimal(0)},
	}
	for _, test := range tests {
		d, err := types.DecimalFromString(test.input)
		require.NoError(t, err, test.input)
		assert.True(t, d.Equal(test.expected), "%s parsed to %s", test.input, d)
	}

	// fractional values are exact: 1.5 + 1.5 = 3
	half, err := types.DecimalFromString("1.5")
	require.NoError(t, err)
	assert.Equal(t, types.NewDecimal(3), half.Add(half))
	assert.Equal(t, types.MustDecimalFromString(".5"), types.MustDecimalFromString("0.5"))

	_, err = types.DecimalFromString("")
	assert.Error(t, err)
	_, err = types.DecimalFromString("1.0000000000000000001")
	assert.Error(t, err)
	_, err = types.DecimalFromString("abc")
	assert.Error(t, err)
}

func TestDecimalArithmetic(t *testing.T) {

	t.Parallel()

	one := types.NewDecimal(1)
	two := types.NewDecimal(2)

	assert.Equal(t, types.NewDecimal(3), one.Add(two))
	assert.Equal(t, types.NewDecimal(-1), one.Sub(two))
	assert.Equal(t, one, two.Add(types.NewDecimal(-1)))
	assert.Equal(t, types.NewDecimal(0), one.Sub(one))

	assert.Equal(t, -1, one.Cmp(two))
	assert.Equal(t, 1, two.Cmp(one))
	assert.Equal(t, 0, one.Cmp(one))
	assert.Equal(t, -1, types.NewDecimal(-2).Cmp(types.NewDecimal(-1)))

	assert.Equal(t, 1, one.Sign())
	assert.Equal(t, -1, one.Neg().Sign())
	assert.Equal(t, 0, one.Sub(one).Sign())
	assert.False(t, one.Sub(one).IsNegative())
}

func TestDecimalString(t *testing.T) {

	t.Parallel()

	assert.Equal(t, "0", types.NewDecimal(0).String())
	assert.Equal(t, "-12", types.NewDecimal(-12).String())
	assert.Equal(t, "1.5", types.MustDecimalFromString("1.5").String())
	assert.Equal(t, "0.000000000000000001", types.MustDecimalFromString("0.000000000000000001").String())
	assert.Equal(t, "1000000000000000000", types.MaxSupply.String())
}

func TestDecimalBinaryRoundTrip(t *testing.T) {

	t.Parallel()

	for _, d := range []types.Decimal{
		types.NewDecimal(0),
		types.MustDecimalFromString("-123.456"),
		types.MaxSupply,
	} {
		data, err := d.MarshalBinary()
		require.NoError(t, err)

		var decoded types.Decimal
		require.NoError(t, decoded.UnmarshalBinary(data))
		assert.Equal(t, d, decoded)
	}
}
