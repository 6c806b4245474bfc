package domain

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every cart and order subtotal.
var TaxRate = decimal.NewFromFloat(0.10)

func init() {
	// Amounts serialize as JSON numbers (12.99), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Round2 rounds a monetary amount to 2 decimal places.
// Every derived amount is rounded as it is computed, not at render time.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MinorUnits converts a decimal dollar amount to integer cents for the
// payment provider. The amount is rounded to 2 places first so 19.999
// becomes 2000, not 1999.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// LineTotal computes round2(price * quantity).
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(price.Mul(decimal.NewFromInt(int64(quantity))))
}
