package records

import (
	"github.com/shopspring/decimal"
)

// Amount reads a monetary field as an exact decimal. Missing or malformed
// values count as zero.
func Amount(r Record, field string) decimal.Decimal {
	switch v := r[field].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// SumAmounts adds field across recs. A record may carry a "remaining" amount
// that takes precedence over field when the owner paid part of it back.
func SumAmounts(recs []Record, field string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range recs {
		if _, ok := r["remaining"]; ok {
			total = total.Add(Amount(r, "remaining"))
			continue
		}
		total = total.Add(Amount(r, field))
	}
	return total
}
