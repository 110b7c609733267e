package jxutil

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDecimal(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want string
	}{
		{in: `1250`, want: "1250"},
		{in: `12.5`, want: "12.5"},
		{in: `"99"`, want: "99"},
		{in: `null`, want: "0"},
	} {
		got, err := DecodeDecimal(jx.DecodeStr(tt.in))
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}

	_, err := DecodeDecimal(jx.DecodeStr(`true`))
	require.Error(t, err)

	_, err = DecodeDecimal(jx.DecodeStr(`"abc"`))
	require.Error(t, err)
}

func TestDecodeNullDecimal(t *testing.T) {
	got, err := DecodeNullDecimal(jx.DecodeStr(`null`))
	require.NoError(t, err)
	assert.False(t, got.Valid)

	got, err = DecodeNullDecimal(jx.DecodeStr(`15`))
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, "15", got.Decimal.String())
}

func TestEncoders(t *testing.T) {
	var e jx.Encoder
	e.ArrStart()
	Decimal(&e, decimal.RequireFromString("10.50"))
	NullDecimal(&e, decimal.NullDecimal{})
	OptStr(&e, "")
	OptStr(&e, "x")
	e.ArrEnd()

	assert.JSONEq(t, `[10.5, null, null, "x"]`, string(e.Bytes()))
}
