package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OptionalAmount is a decimal amount that may be unknown. The zero value is
// Unknown: an amount that could not be read is never treated as zero.
type OptionalAmount struct {
	value decimal.Decimal
	known bool
}

// SomeAmount wraps a known decimal value.
func SomeAmount(v decimal.Decimal) OptionalAmount {
	return OptionalAmount{value: v, known: true}
}

// UnknownAmount returns the absent amount.
func UnknownAmount() OptionalAmount {
	return OptionalAmount{}
}

// Known reports whether the amount carries a value.
func (a OptionalAmount) Known() bool {
	return a.known
}

// Value returns the wrapped decimal and whether it is known.
func (a OptionalAmount) Value() (decimal.Decimal, bool) {
	return a.value, a.known
}

// String renders the amount, or "unknown" when absent.
func (a OptionalAmount) String() string {
	if !a.known {
		return "unknown"
	}
	return a.value.String()
}

// MarshalJSON encodes a known amount as a JSON number string and an unknown
// amount as null.
func (a OptionalAmount) MarshalJSON() ([]byte, error) {
	if !a.known {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON decodes null as Unknown and anything else as a decimal.
func (a *OptionalAmount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = OptionalAmount{}
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*a = SomeAmount(d)
	return nil
}
