package types

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// decimalPlaces is the fixed number of fractional digits carried by Decimal.
const decimalPlaces = 18

var decimalScale = uint256.NewInt(1_000_000_000_000_000_000)

// MaxSupply is the largest initial supply a fungible resource is minted with.
var MaxSupply = MustDecimalFromString("1000000000000000000")

// A Decimal is a signed 256-bit fixed-point number with 18 decimal places,
// used for all fungible resource amounts. The zero value is 0.
type Decimal struct {
	abs uint256.Int
	neg bool
}

// NewDecimal returns the Decimal representing the given whole number.
func NewDecimal(i int64) Decimal {
	neg := i < 0
	if neg {
		i = -i
	}
	var abs uint256.Int
	abs.Mul(uint256.NewInt(uint64(i)), decimalScale)
	return Decimal{abs: abs, neg: neg && !abs.IsZero()}
}

// DecimalFromString parses a decimal string such as "-1.5" or "10".
// At most 18 fractional digits are supported.
func DecimalFromString(s string) (Decimal, error) {
	raw := s
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")
	if raw == "" {
		return Decimal{}, errors.Errorf("invalid decimal %q", s)
	}

	integer := raw
	fraction := ""
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		integer, fraction = raw[:i], raw[i+1:]
	}
	if len(fraction) > decimalPlaces {
		return Decimal{}, errors.Errorf("decimal %q exceeds %d fractional digits", s, decimalPlaces)
	}
	if integer == "" {
		integer = "0"
	}

	whole, err := uint256.FromDecimal(integer)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "invalid decimal %q", s)
	}
	var abs uint256.Int
	if _, overflow := abs.MulOverflow(whole, decimalScale); overflow {
		return Decimal{}, errors.Errorf("decimal %q out of range", s)
	}
	if fraction != "" {
		frac, err := uint256.FromDecimal(fraction + strings.Repeat("0", decimalPlaces-len(fraction)))
		if err != nil {
			return Decimal{}, errors.Wrapf(err, "invalid decimal %q", s)
		}
		if _, overflow := abs.AddOverflow(&abs, frac); overflow {
			return Decimal{}, errors.Errorf("decimal %q out of range", s)
		}
	}
	return Decimal{abs: abs, neg: neg && !abs.IsZero()}, nil
}

// MustDecimalFromString is DecimalFromString for known-good literals.
func MustDecimalFromString(s string) Decimal {
	d, err := DecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) IsZero() bool {
	return d.abs.IsZero()
}

func (d Decimal) IsNegative() bool {
	return d.neg
}

// Sign returns -1, 0 or 1 depending on the sign of d.
func (d Decimal) Sign() int {
	if d.abs.IsZero() {
		return 0
	}
	if d.neg {
		return -1
	}
	return 1
}

func (d Decimal) Neg() Decimal {
	if d.abs.IsZero() {
		return d
	}
	return Decimal{abs: d.abs, neg: !d.neg}
}

func (d Decimal) Add(other Decimal) Decimal {
	if d.neg == other.neg {
		var abs uint256.Int
		abs.Add(&d.abs, &other.abs)
		return Decimal{abs: abs, neg: d.neg && !abs.IsZero()}
	}
	var abs uint256.Int
	switch d.abs.Cmp(&other.abs) {
	case 0:
		return Decimal{}
	case 1:
		abs.Sub(&d.abs, &other.abs)
		return Decimal{abs: abs, neg: d.neg}
	default:
		abs.Sub(&other.abs, &d.abs)
		return Decimal{abs: abs, neg: other.neg}
	}
}

func (d Decimal) Sub(other Decimal) Decimal {
	return d.Add(other.Neg())
}

// Cmp returns -1, 0 or 1 if d is less than, equal to or greater than other.
func (d Decimal) Cmp(other Decimal) int {
	if d.neg != other.neg {
		if d.neg {
			return -1
		}
		return 1
	}
	cmp := d.abs.Cmp(&other.abs)
	if d.neg {
		return -cmp
	}
	return cmp
}

func (d Decimal) Equal(other Decimal) bool {
	return d == other
}

func (d Decimal) String() string {
	var whole, frac uint256.Int
	whole.Div(&d.abs, decimalScale)
	frac.Mod(&d.abs, decimalScale)

	s := whole.Dec()
	if !frac.IsZero() {
		digits := fmt.Sprintf("%018s", frac.Dec())
		s += "." + strings.TrimRight(digits, "0")
	}
	if d.neg {
		s = "-" + s
	}
	return s
}

// MarshalBinary encodes the decimal as a sign byte followed by the 32-byte
// big-endian magnitude.
func (d Decimal) MarshalBinary() ([]byte, error) {
	out := make([]byte, 33)
	if d.neg {
		out[0] = 1
	}
	d.abs.WriteToSlice(out[1:])
	return out, nil
}

func (d *Decimal) UnmarshalBinary(data []byte) error {
	if len(data) != 33 {
		return errors.Errorf("invalid decimal encoding length %d", len(data))
	}
	d.neg = data[0] == 1
	d.abs.SetBytes(data[1:])
	if d.abs.IsZero() {
		d.neg = false
	}
	return nil
}
