package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalAmount_ZeroValueIsUnknown(t *testing.T) {
	var a OptionalAmount
	assert.False(t, a.Known())
	assert.Equal(t, "unknown", a.String())

	_, ok := a.Value()
	assert.False(t, ok)
}

func TestOptionalAmount_Some(t *testing.T) {
	a := SomeAmount(decimal.NewFromFloat(1250.50))
	assert.True(t, a.Known())
	assert.Equal(t, "1250.5", a.String())

	v, ok := a.Value()
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromFloat(1250.50)))
}

func TestOptionalAmount_UnknownIsNotZero(t *testing.T) {
	// An unreadable amount must never be confused with a zero figure
	unknown := UnknownAmount()
	zero := SomeAmount(decimal.Zero)
	assert.False(t, unknown.Known())
	assert.True(t, zero.Known())
}

func TestOptionalAmount_JSON(t *testing.T) {
	type payload struct {
		Amount OptionalAmount `json:"amount"`
	}

	t.Run("unknown marshals to null", func(t *testing.T) {
		data, err := json.Marshal(payload{Amount: UnknownAmount()})
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":null}`, string(data))
	})

	t.Run("known marshals to number", func(t *testing.T) {
		data, err := json.Marshal(payload{Amount: SomeAmount(decimal.NewFromInt(100))})
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"100"}`, string(data))
	})

	t.Run("null unmarshals to unknown", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"amount":null}`), &p))
		assert.False(t, p.Amount.Known())
	})

	t.Run("number unmarshals to known", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"amount":"42.5"}`), &p))
		v, ok := p.Amount.Value()
		assert.True(t, ok)
		assert.True(t, v.Equal(decimal.NewFromFloat(42.5)))
	})
}
