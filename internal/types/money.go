// README: Common money value object used across modules.
package types

// Money is an amount in minor currency units (cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// Major returns the amount in major units, the unit estimated costs are quoted in.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}
