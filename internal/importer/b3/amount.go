package b3

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseBrazilianNumber parses a Brazilian-formatted number, with or without
// the currency prefix. Examples: "R$ 1.234,56" -> 1234.56, "34,12" -> 34.12,
// "100" -> 100.
func parseBrazilianNumber(s string) (float64, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.InexactFloat64(), nil
}
