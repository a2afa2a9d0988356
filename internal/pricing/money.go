package pricing

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCents renders an amount in minor units for notification text, for
// example "USD 1,234.50". Unknown currency codes fall back to USD.
func FormatCents(cents int64, currencyCode string, tag language.Tag) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}
	p := message.NewPrinter(tag)
	return p.Sprint(currency.ISO(unit.Amount(float64(cents) / 100)))
}
