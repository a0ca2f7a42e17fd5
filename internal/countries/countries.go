// Package countries is a static country/currency lookup table. The engine
// stores currency as an ISO-like code; this table resolves codes to display
// symbols and country defaults at the presentation boundary.
package countries

// Config describes one supported country.
type Config struct {
	Code              string
	Name              string
	Currency          string
	CurrencySymbol    string
	TaxLabel          string
	DefaultTaxPercent float64
	BankRoutingLabel  string
	DateFormat        string // Go time layout
}

var byCode = map[string]Config{
	"US": {Code: "US", Name: "United States", Currency: "USD", CurrencySymbol: "$", TaxLabel: "Sales Tax", DefaultTaxPercent: 0, BankRoutingLabel: "Routing Number", DateFormat: "01/02/2006"},
	"GB": {Code: "GB", Name: "United Kingdom", Currency: "GBP", CurrencySymbol: "£", TaxLabel: "VAT", DefaultTaxPercent: 20, BankRoutingLabel: "Sort Code", DateFormat: "02/01/2006"},
	"AU": {Code: "AU", Name: "Australia", Currency: "AUD", CurrencySymbol: "A$", TaxLabel: "GST", DefaultTaxPercent: 10, BankRoutingLabel: "BSB", DateFormat: "02/01/2006"},
	"CA": {Code: "CA", Name: "Canada", Currency: "CAD", CurrencySymbol: "C$", TaxLabel: "GST/HST", DefaultTaxPercent: 5, BankRoutingLabel: "Transit Number", DateFormat: "02/01/2006"},
	"IE": {Code: "IE", Name: "Ireland", Currency: "EUR", CurrencySymbol: "€", TaxLabel: "VAT", DefaultTaxPercent: 23, BankRoutingLabel: "IBAN", DateFormat: "02/01/2006"},
	"NZ": {Code: "NZ", Name: "New Zealand", Currency: "NZD", CurrencySymbol: "NZ$", TaxLabel: "GST", DefaultTaxPercent: 15, BankRoutingLabel: "Bank Code", DateFormat: "02/01/2006"},
	"PL": {Code: "PL", Name: "Poland", Currency: "PLN", CurrencySymbol: "zł", TaxLabel: "VAT", DefaultTaxPercent: 23, BankRoutingLabel: "IBAN", DateFormat: "02.01.2006"},
	"DE": {Code: "DE", Name: "Germany", Currency: "EUR", CurrencySymbol: "€", TaxLabel: "MwSt", DefaultTaxPercent: 19, BankRoutingLabel: "IBAN", DateFormat: "02.01.2006"},
	"FR": {Code: "FR", Name: "France", Currency: "EUR", CurrencySymbol: "€", TaxLabel: "TVA", DefaultTaxPercent: 20, BankRoutingLabel: "IBAN", DateFormat: "02/01/2006"},
}

// ByCode returns the configuration for a country code, falling back to US.
func ByCode(code string) Config {
	if c, ok := byCode[code]; ok {
		return c
	}
	return byCode["US"]
}

// CurrencySymbol resolves a currency code to its display symbol. Unknown
// codes fall back to the code itself.
func CurrencySymbol(currency string) string {
	for _, c := range byCode {
		if c.Currency == currency {
			return c.CurrencySymbol
		}
	}
	return currency
}
