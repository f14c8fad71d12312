package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimalRounding(t *testing.T) {
	cases := []struct {
		in   string
		want Money
	}{
		{"5.00", 500},
		{"0.845", 85},
		{"0.844", 84},
		{"-1.005", -101},
		{"14.35", 1435},
		{"3", 300},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := FromDecimal(decimal.RequireFromString(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromDecimalExact(t *testing.T) {
	m, err := FromDecimalExact(decimal.RequireFromString("7.10"))
	require.NoError(t, err)
	assert.Equal(t, Money(710), m)

	_, err = FromDecimalExact(decimal.RequireFromString("7.105"))
	assert.ErrorIs(t, err, ErrTooPrecise)
}

func TestFromDecimalRejectsAmountsBeyondInt64Cents(t *testing.T) {
	for _, in := range []string{"184467440737095517.16", "92233720368547758.08", "-92233720368547758.09", "1e30"} {
		_, err := FromDecimalExact(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, ErrOutOfRange, in)
	}

	m, err := FromDecimalExact(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, Money(math.MaxInt64), m)

	_, err = Parse("184467440737095517.16")
	assert.ErrorIs(t, err, ErrOutOfRange)

	var body struct {
		Amount Money `json:"amount"`
	}
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"amount": 184467440737095517.16}`), &body), ErrOutOfRange)
}

func TestCheckedArithmetic(t *testing.T) {
	m, err := MustParse("5.00").CheckedMul(3)
	require.NoError(t, err)
	assert.Equal(t, Money(1500), m)

	_, err = MustParse("5.00").CheckedMul(3689348814741910324)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Money(math.MaxInt64).CheckedAdd(1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = Money(math.MinInt64).CheckedAdd(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	sum, err := Money(math.MaxInt64 - 1).CheckedAdd(1)
	require.NoError(t, err)
	assert.Equal(t, Money(math.MaxInt64), sum)
}

func TestLineTotalsAreExact(t *testing.T) {
	subtotal := Sum(MustParse("5.00").Mul(2), MustParse("3.50").Mul(1))
	total := subtotal.Add(MustParse("0.85")).Sub(Zero)

	assert.Equal(t, "14.35", total.String())
}

func TestJSON(t *testing.T) {
	var body struct {
		Amount Money `json:"amount"`
		Tax    Money `json:"tax"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 14.35, "tax": "0.85"}`), &body))
	assert.Equal(t, Money(1435), body.Amount)
	assert.Equal(t, Money(85), body.Tax)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 14.35, "tax": 0.85}`, string(out))
}

func TestScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(250)))
	assert.Equal(t, Money(250), m)

	require.NoError(t, m.Scan([]byte("1435")))
	assert.Equal(t, Money(1435), m)

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(true))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "33.33", Percent(100, 300).StringFixed(2))
	assert.True(t, Percent(100, 0).IsZero())
}
