package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Decimal converts cents to an exact two-place decimal.
func Decimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// String renders cents as "1234.56".
func String(cents int64) string {
	return Decimal(cents).StringFixed(2)
}

// Formatter renders amounts in one display currency. The currency is purely
// cosmetic; no conversion is performed.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter returns a formatter for unit using tag's number conventions.
func NewFormatter(unit currency.Unit, tag language.Tag) *Formatter {
	return &Formatter{unit: unit, printer: message.NewPrinter(tag)}
}

// maxLocalized is the largest magnitude, in cents, that survives the
// float64 conversion the locale-aware number formatter needs.
const maxLocalized int64 = 999_999_999_999_999

// Format renders cents with the currency symbol, e.g. "€ 54.39". Amounts
// beyond maxLocalized are printed exactly without digit grouping.
func (f *Formatter) Format(cents int64) string {
	if cents > maxLocalized || cents < -maxLocalized {
		return f.printer.Sprint(currency.Symbol(f.unit)) + " " + String(cents)
	}
	amount, _ := Decimal(cents).Float64()
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}

// Currency returns the ISO code, e.g. "EUR".
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// FormattedBreakdown is Breakdown rendered for display.
type FormattedBreakdown struct {
	Currency   string `json:"currency"`
	Subtotal   string `json:"subtotal"`
	Shipping   string `json:"shipping"`
	Tax        string `json:"tax"`
	GrandTotal string `json:"grand_total"`
}

// Breakdown formats every amount of b.
func (f *Formatter) Breakdown(b Breakdown) FormattedBreakdown {
	return FormattedBreakdown{
		Currency:   f.Currency(),
		Subtotal:   f.Format(b.Subtotal),
		Shipping:   f.Format(b.Shipping),
		Tax:        f.Format(b.Tax),
		GrandTotal: f.Format(b.GrandTotal),
	}
}
