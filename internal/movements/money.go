package movements

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormat parses and formats monetary amounts for one locale.
// Formatting rounds to two decimal places; parsing any formatted value
// yields the original amount back.
type MoneyFormat struct {
	printer   *message.Printer
	symbol    string
	groupSep  rune
	decimal   rune
	hasGroups bool
}

// NewMoneyFormat builds a formatter for the given BCP 47 locale and
// currency symbol (e.g. "pt-BR", "R$").
func NewMoneyFormat(locale, symbol string) (*MoneyFormat, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}
	p := message.NewPrinter(tag)
	f := &MoneyFormat{printer: p, symbol: symbol, decimal: '.'}

	// Probe the locale's separators from a formatted sample.
	sample := p.Sprint(number.Decimal(1234.5, number.Scale(2)))
	var seps []rune
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			seps = append(seps, r)
		}
	}
	if len(seps) > 0 {
		f.decimal = seps[len(seps)-1]
	}
	if len(seps) > 1 {
		f.groupSep = seps[0]
		f.hasGroups = true
	}
	return f, nil
}

// Format renders the amount with the locale's grouping and two decimals,
// prefixed by the currency symbol when one is configured.
func (f *MoneyFormat) Format(amount decimal.Decimal) string {
	v, _ := amount.Round(2).Float64()
	formatted := f.printer.Sprint(number.Decimal(v, number.Scale(2)))
	if f.symbol == "" {
		return formatted
	}
	return f.symbol + " " + formatted
}

// Parse extracts the exact amount from user-entered currency text.
// Group separators and the currency symbol are stripped, the locale's
// decimal separator maps to a point. Unparseable input yields zero.
func (f *MoneyFormat) Parse(raw string) decimal.Decimal {
	s := raw
	if f.symbol != "" {
		s = strings.ReplaceAll(s, f.symbol, "")
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == f.decimal:
			b.WriteRune('.')
		case r == '-':
			b.WriteRune('-')
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity extracts a non-negative integer from user-entered text,
// ignoring every non-digit character. Empty or digit-free input yields zero.
func ParseQuantity(raw string) int64 {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
