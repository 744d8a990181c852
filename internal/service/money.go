package service

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MoneyFormatter renders amounts as "<ISO code> 1,234.50".
type MoneyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewMoneyFormatter formats amounts in unit using English digit grouping.
func NewMoneyFormatter(unit currency.Unit) *MoneyFormatter {
	return &MoneyFormatter{unit: unit, printer: message.NewPrinter(language.English)}
}

// Format renders d rounded to two decimals. The digits come from the decimal
// itself; only the grouping of the whole part goes through the printer.
func (f *MoneyFormatter) Format(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	whole, cents, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")

	grouped := whole
	// decimal(20,2) balances always fit; wider values are printed ungrouped.
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		grouped = f.printer.Sprintf("%d", n)
	}
	return f.unit.String() + " " + sign + grouped + "." + cents
}

// Currency returns the ISO code.
func (f *MoneyFormatter) Currency() string {
	return f.unit.String()
}
