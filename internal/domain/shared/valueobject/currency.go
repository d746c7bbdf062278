package valueobject

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	BRL Currency = "BRL" // Brazilian Real (default)
	USD Currency = "USD" // US Dollar
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = BRL

// IsValid checks if the currency is supported
func (c Currency) IsValid() bool {
	return c == BRL || c == USD
}

// String returns the string representation of the currency
func (c Currency) String() string {
	return string(c)
}
