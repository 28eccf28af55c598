package util

import (
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
	trillion = decimal.NewFromInt(1_000_000_000_000)
)

// FormatPrice renders a USD price without exponent notation. Sub-cent prices keep
// up to 8 significant decimals so memecoin quotes stay readable.
func FormatPrice(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case d.IsZero():
		return "$0"
	case d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)):
		return "$" + d.StringFixed(2)
	default:
		return "$" + d.Round(8).String()
	}
}

// FormatCompact renders large USD amounts as $1.23B, $45.60M, $7.80K.
func FormatCompact(v float64) string {
	d := decimal.NewFromFloat(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	switch {
	case d.GreaterThanOrEqual(trillion):
		return sign + "$" + d.Div(trillion).StringFixed(2) + "T"
	case d.GreaterThanOrEqual(billion):
		return sign + "$" + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return sign + "$" + d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(thousand):
		return sign + "$" + d.Div(thousand).StringFixed(2) + "K"
	default:
		return sign + "$" + d.StringFixed(2)
	}
}

// FormatPercent renders a signed percentage with two decimals.
func FormatPercent(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}
