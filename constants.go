package testenv

import (
	"github.com/ociswap/scrypto-testenv/types"
)

// StandardTestFee is the amount locked by the fee instruction automatically
// prepended to every manifest.
var StandardTestFee = types.NewDecimal(5000)

// instructionCounterInit is the initial value of the instruction counter;
// slot 0 is reserved for the automatically prepended fee lock.
const instructionCounterInit = 1
