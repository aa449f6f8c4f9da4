package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DisplayDateFormat renders dates as "March 5, 2026"
const DisplayDateFormat = "January 2, 2006"

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// en-US display symbols for the currencies the UI offers
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"INR": "₹",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"MXN": "MX$",
	"BRL": "R$",
	"KRW": "₩",
	"ILS": "₪",
}

// CurrencyScale returns the number of minor-unit digits of an ISO 4217 code, defaulting to 2
func CurrencyScale(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return moneyPlaces
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// MoneyFormatter renders an amount in the given currency
type MoneyFormatter func(amount decimal.Decimal, code string) string

// FormatCurrency formats an amount the way en-US displays money, e.g. $1,234.56
func FormatCurrency(amount decimal.Decimal, code string) string {
	return formatMoney(amount, code, true)
}

// FormatCurrencyIn returns a formatter for output restricted to the code page cm.
// Symbols cm cannot encode are replaced by the ISO code, e.g. INR 1,234.56.
func FormatCurrencyIn(cm *charmap.Charmap) MoneyFormatter {
	return func(amount decimal.Decimal, code string) string {
		formatted := formatMoney(amount, code, true)
		for _, r := range formatted {
			if _, ok := cm.EncodeRune(r); !ok {
				return formatMoney(amount, code, false)
			}
		}
		return formatted
	}
}

func formatMoney(amount decimal.Decimal, code string, useSymbol bool) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}
	scale := CurrencyScale(code)

	rounded := amount.Round(int32(scale))
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	value, _ := rounded.Float64()
	digits := displayPrinter.Sprint(number.Decimal(value, number.Scale(scale)))

	if symbol, ok := currencySymbols[code]; ok && useSymbol {
		return sign + symbol + digits
	}
	return sign + code + " " + digits
}

// FormatDate formats a date as "Month D, YYYY"; the zero time formats as an empty string
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateFormat)
}

// FormatPercent formats a percentage rate with up to two decimals, e.g. 8.5%
func FormatPercent(rate decimal.Decimal) string {
	return rate.Round(2).String() + "%"
}
