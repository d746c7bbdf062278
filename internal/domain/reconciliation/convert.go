package reconciliation

import (
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Amounts holds the three monetary views of a unit price: the value as quoted,
// the value converted to BRL, and the cost basis in dollars.
//
// Values are kept unrounded; rounding to 2 decimal places happens only at the
// persistence boundary so repeated recomputation never compounds rounding
// error.
type Amounts struct {
	Original     decimal.Decimal `json:"original"`
	ConvertedBRL decimal.Decimal `json:"converted_brl"`
	DollarCost   decimal.Decimal `json:"dollar_cost"`
}

// Convert derives the monetary views of a unit price. It never errors:
// degenerate input (unknown currency, non-positive exchange rate) yields zero
// amounts for the fields that would require a division or an unknown rate.
//
// BRL: original = convertedBRL = unitPrice, dollarCost = unitPrice / rate.
// USD: original = unitPrice, convertedBRL = unitPrice * rate, dollarCost = unitPrice.
func Convert(unitPrice decimal.Decimal, currency valueobject.Currency, exchangeRate decimal.Decimal) Amounts {
	switch currency {
	case valueobject.BRL:
		dollarCost := decimal.Zero
		if exchangeRate.IsPositive() {
			dollarCost = unitPrice.Div(exchangeRate)
		}
		return Amounts{
			Original:     unitPrice,
			ConvertedBRL: unitPrice,
			DollarCost:   dollarCost,
		}
	case valueobject.USD:
		convertedBRL := decimal.Zero
		if exchangeRate.IsPositive() {
			convertedBRL = unitPrice.Mul(exchangeRate)
		}
		return Amounts{
			Original:     unitPrice,
			ConvertedBRL: convertedBRL,
			DollarCost:   unitPrice,
		}
	default:
		return Amounts{
			Original:     unitPrice,
			ConvertedBRL: decimal.Zero,
			DollarCost:   decimal.Zero,
		}
	}
}
