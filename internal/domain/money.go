package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount the way the UI shows it, e.g. Rp10.000.
func FormatRupiah(amount int64) string {
	return idPrinter.Sprintf("Rp%d", amount)
}
