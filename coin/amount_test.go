package coin

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/iov-one/rebase/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Amount
		wantErr *errors.Error
	}{
		"zero":              {raw: "0", want: Amount{}},
		"leading zeros":     {raw: "000123", want: NewAmount(123)},
		"plain":             {raw: "100000", want: NewAmount(100000)},
		"all literal":       {raw: "all", want: MaxAmount},
		"max value":         {raw: MaxAmount.String(), want: MaxAmount},
		"saturates":         {raw: "115792089237316195423570985008687907853269984665640564039457584007913129639936", want: MaxAmount},
		"very long":         {raw: strings.Repeat("9", 200), want: MaxAmount},
		"negative":          {raw: "-1", wantErr: errors.ErrAmount},
		"empty":             {raw: "", wantErr: errors.ErrAmount},
		"not a number":      {raw: "12a", wantErr: errors.ErrAmount},
		"fraction rejected": {raw: "1.5", wantErr: errors.ErrAmount},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseAmount(tc.raw)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tc.wantErr.Is(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	a, err := ParseDecimal("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, NewAmount(1500000), a)
	assert.Equal(t, "1.5", a.Decimal(6))

	a, err = ParseDecimal("42", 0)
	require.NoError(t, err)
	assert.Equal(t, NewAmount(42), a)

	a, err = ParseDecimal("all", 6)
	require.NoError(t, err)
	assert.True(t, a.IsAll())

	_, err = ParseDecimal("1.0000001", 6)
	assert.True(t, errors.ErrAmount.Is(err))
	_, err = ParseDecimal("-2", 6)
	assert.True(t, errors.ErrAmount.Is(err))
	_, err = ParseDecimal("abc", 6)
	assert.True(t, errors.ErrAmount.Is(err))
}

func TestArithmetic(t *testing.T) {
	one := NewAmount(1)

	sum, err := NewAmount(2).Add(NewAmount(3))
	require.NoError(t, err)
	assert.Equal(t, NewAmount(5), sum)

	_, err = MaxAmount.Add(one)
	assert.True(t, errors.ErrOverflow.Is(err))
	assert.Equal(t, MaxAmount, MaxAmount.SaturatingAdd(one))

	diff, err := NewAmount(5).Sub(NewAmount(3))
	require.NoError(t, err)
	assert.Equal(t, NewAmount(2), diff)
	_, err = NewAmount(3).Sub(NewAmount(5))
	assert.True(t, errors.ErrInsufficientBalance.Is(err))

	prod, err := NewAmount(6).Mul(NewAmount(7))
	require.NoError(t, err)
	assert.Equal(t, NewAmount(42), prod)
	_, err = MaxAmount.Mul(NewAmount(2))
	assert.True(t, errors.ErrOverflow.Is(err))
	assert.Equal(t, MaxAmount, MaxAmount.SaturatingMul(NewAmount(2)))

	assert.True(t, NewAmount(1).LT(NewAmount(2)))
	assert.True(t, NewAmount(2).GT(NewAmount(1)))
	assert.Equal(t, 0, NewAmount(2).Cmp(NewAmount(2)))
	assert.Equal(t, NewAmount(1), Min(NewAmount(1), NewAmount(2)))
	assert.True(t, Amount{}.IsZero())
	assert.False(t, NewAmount(1).IsAll())
}

func TestMulDiv(t *testing.T) {
	// The intermediate product does not fit 256 bits.
	big := MustParseAmount("100000000000000000000000000000000000000000000000000000000000000000000000000")
	res, err := MulDiv(big, Precision, Precision)
	require.NoError(t, err)
	assert.Equal(t, big, res)

	res, err = MulDiv(NewAmount(10), NewAmount(1), NewAmount(3))
	require.NoError(t, err)
	assert.Equal(t, NewAmount(3), res, "floor")

	_, err = MulDiv(NewAmount(1), NewAmount(1), Amount{})
	assert.True(t, errors.ErrInput.Is(err))

	_, err = MulDiv(MaxAmount, NewAmount(2), NewAmount(1))
	assert.True(t, errors.ErrOverflow.Is(err))
}

func TestAmountJSON(t *testing.T) {
	raw, err := json.Marshal(struct{ A Amount }{A: NewAmount(17)})
	require.NoError(t, err)
	assert.Equal(t, `{"A":"17"}`, string(raw))

	var dst struct{ A, B, C Amount }
	require.NoError(t, json.Unmarshal([]byte(`{"A":"99","B":7,"C":"all"}`), &dst))
	assert.Equal(t, NewAmount(99), dst.A)
	assert.Equal(t, NewAmount(7), dst.B)
	assert.True(t, dst.C.IsAll())

	assert.Error(t, json.Unmarshal([]byte(`{"A":-1}`), &dst))
	assert.Error(t, json.Unmarshal([]byte(`{"A":true}`), &dst))
}

func TestAmountAmino(t *testing.T) {
	repr, err := NewAmount(123).MarshalAmino()
	require.NoError(t, err)
	assert.Equal(t, "123", repr)

	var a Amount
	require.NoError(t, a.UnmarshalAmino(repr))
	assert.Equal(t, NewAmount(123), a)
	assert.Error(t, a.UnmarshalAmino("x"))
}
