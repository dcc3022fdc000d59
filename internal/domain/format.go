package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders whole currency units with thousands separators.
func FormatAmount(n int64) string {
	return amountPrinter.Sprintf("%d", n)
}
