package testenv_test

import (
	"github.com/rs/zerolog"

	testenv "github.com/ociswap/scrypto-testenv"
)

// session is shared by all tests in this package; environments revived from
// it are independent of each other.
var session = testenv.NewSession(testenv.WithLogger(zerolog.Nop()))
