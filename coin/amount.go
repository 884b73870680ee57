/*
Package coin implements the fixed-point amount used by the ledger for
principals, balances, native asset values and per-second rates.

An Amount is an unsigned 256 bit integer. Rates are expressed in units of
1/Precision per second.
*/
package coin

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
	"github.com/iov-one/rebase/errors"
	"github.com/shopspring/decimal"
)

var (
	// Precision is the fixed-point scale of rates and growth factors.
	Precision = NewAmount(1e18)

	// MaxAmount is the largest representable amount. It is used as the
	// "everything" sentinel when burning, redeeming or transferring.
	MaxAmount = Amount{v: *new(uint256.Int).SetAllOne()}

	isDigits = regexp.MustCompile(`^[0-9]+$`).MatchString
)

// allLiteral can be used instead of the decimal value of MaxAmount.
const allLiteral = "all"

// maxDigits is the length of the decimal representation of MaxAmount.
const maxDigits = 78

// Amount is a non negative 256 bit integer. The zero value is a valid zero
// amount. Amounts are values and can be compared with ==.
type Amount struct {
	v uint256.Int
}

// NewAmount returns an amount of given value.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount decodes a decimal integer. A value that does not fit into
// 256 bits saturates to MaxAmount, as does the literal "all".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == allLiteral {
		return MaxAmount, nil
	}
	if !isDigits(s) {
		return Amount{}, errors.Wrapf(errors.ErrAmount, "not a decimal integer: %q", s)
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return Amount{}, nil
	}
	if len(s) > maxDigits {
		return MaxAmount, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		// Syntax was checked above so this is an overflow.
		return MaxAmount, nil
	}
	return Amount{v: *v}, nil
}

// MustParseAmount is ParseAmount that panics on error. Use it for
// constants and tests only.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseDecimal decodes a human readable decimal ("1.5") and scales it by
// 10^decimals. A value with more fractional digits than decimals is
// rejected, as is a negative one.
func ParseDecimal(s string, decimals int32) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == allLiteral {
		return MaxAmount, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, errors.Wrapf(errors.ErrAmount, "not a decimal: %q", s)
	}
	if d.IsNegative() {
		return Amount{}, errors.Wrapf(errors.ErrAmount, "negative value: %q", s)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, errors.Wrapf(errors.ErrAmount, "more than %d fractional digits: %q", decimals, s)
	}
	return ParseAmount(scaled.Truncate(0).String())
}

// Decimal returns the amount divided by 10^decimals in human readable
// notation.
func (a Amount) Decimal(decimals int32) string {
	return decimal.RequireFromString(a.String()).Shift(-decimals).String()
}

// String returns the decimal representation.
func (a Amount) String() string {
	return a.v.Dec()
}

// IsZero returns true for the zero amount.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// IsAll returns true if this is the "everything" sentinel.
func (a Amount) IsAll() bool {
	return a == MaxAmount
}

// Cmp returns -1, 0 or 1 if a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// LT returns true if a is less than b.
func (a Amount) LT(b Amount) bool {
	return a.v.Lt(&b.v)
}

// GT returns true if a is greater than b.
func (a Amount) GT(b Amount) bool {
	return a.v.Gt(&b.v)
}

// IsUint64 returns true if the value fits into an uint64.
func (a Amount) IsUint64() bool {
	return a.v.IsUint64()
}

// Uint64 returns the lowest 64 bits of the value.
func (a Amount) Uint64() uint64 {
	return a.v.Uint64()
}

// Add returns a+b or ErrOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	var res Amount
	if _, overflow := res.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, errors.Wrapf(errors.ErrOverflow, "%s + %s", a, b)
	}
	return res, nil
}

// Sub returns a-b or ErrInsufficientBalance if b is greater than a.
func (a Amount) Sub(b Amount) (Amount, error) {
	var res Amount
	if _, underflow := res.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, errors.Wrapf(errors.ErrInsufficientBalance, "%s - %s", a, b)
	}
	return res, nil
}

// Mul returns a*b or ErrOverflow.
func (a Amount) Mul(b Amount) (Amount, error) {
	var res Amount
	if _, overflow := res.v.MulOverflow(&a.v, &b.v); overflow {
		return Amount{}, errors.Wrapf(errors.ErrOverflow, "%s * %s", a, b)
	}
	return res, nil
}

// SaturatingAdd returns a+b or MaxAmount on overflow.
func (a Amount) SaturatingAdd(b Amount) Amount {
	res, err := a.Add(b)
	if err != nil {
		return MaxAmount
	}
	return res
}

// SaturatingMul returns a*b or MaxAmount on overflow.
func (a Amount) SaturatingMul(b Amount) Amount {
	res, err := a.Mul(b)
	if err != nil {
		return MaxAmount
	}
	return res
}

// MulDiv returns floor(a*b/c). The product is computed on 512 bits, so
// only a result that does not fit 256 bits fails with ErrOverflow.
func MulDiv(a, b, c Amount) (Amount, error) {
	if c.IsZero() {
		return Amount{}, errors.Wrap(errors.ErrInput, "division by zero")
	}
	var res Amount
	if _, overflow := res.v.MulDivOverflow(&a.v, &b.v, &c.v); overflow {
		return Amount{}, errors.Wrapf(errors.ErrOverflow, "%s * %s / %s", a, b, c)
	}
	return res, nil
}

// Min returns the smaller of two amounts.
func Min(a, b Amount) Amount {
	if a.LT(b) {
		return a
	}
	return b
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string, "all" or a JSON number.
func (a *Amount) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return errors.Wrap(errors.ErrAmount, "amount must be a string or a number")
		}
		s = n.String()
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalAmino encodes the amount for the model codec.
func (a Amount) MarshalAmino() (string, error) {
	return a.String(), nil
}

// UnmarshalAmino decodes the value produced by MarshalAmino.
func (a *Amount) UnmarshalAmino(s string) error {
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
