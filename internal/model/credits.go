package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// CreditScale is the number of Credits units in one whole credit.
const CreditScale = 100

// Credits is a fixed-point credit amount in hundredths of a credit.
// All ledger arithmetic happens on this integer representation; JSON uses decimal numbers.
type Credits int64

// NewCredits converts a decimal credit amount, rounding to the nearest hundredth.
func NewCredits(v float64) Credits {
	return Credits(math.Round(v * CreditScale))
}

func (c Credits) Float64() float64 {
	return float64(c) / CreditScale
}

func (c Credits) String() string {
	return strconv.FormatFloat(c.Float64(), 'f', -1, 64)
}

func (c Credits) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Credits) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("credits must be a decimal number: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("credits must be finite")
	}
	*c = NewCredits(v)
	return nil
}
