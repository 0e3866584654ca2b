package book

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	displayPlaces      = 2
	missingAmountGlyph = "—"
	thousandsSeparator = ","
	thousandsGroupSize = 3
)

var roundingHalf = decimal.NewFromFloat(0.5)

// Round2 rounds to two decimal places with ties going toward positive infinity.
// Ties are judged on the shortest decimal form of value, so 1.005 rounds to 1.01
// even though its binary form sits just below the tie.
// It is meant for display and export boundaries only; calculations never round.
func Round2(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	rounded := decimal.NewFromFloat(value).
		Shift(displayPlaces).
		Add(roundingHalf).
		Floor().
		Shift(-displayPlaces)
	return rounded.InexactFloat64()
}

// FormatAmount renders an amount with thousands grouping and at most two
// fraction digits. Missing or non-finite values render as a dash.
func FormatAmount(value *float64) string {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return missingAmountGlyph
	}
	rendered := decimal.NewFromFloat(*value).Round(displayPlaces).String()

	sign := ""
	if strings.HasPrefix(rendered, "-") {
		sign = "-"
		rendered = rendered[1:]
	}
	integerPart, fractionPart, hasFraction := strings.Cut(rendered, ".")

	var builder strings.Builder
	builder.WriteString(sign)
	leading := len(integerPart) % thousandsGroupSize
	if leading == 0 {
		leading = thousandsGroupSize
	}
	builder.WriteString(integerPart[:leading])
	for index := leading; index < len(integerPart); index += thousandsGroupSize {
		builder.WriteString(thousandsSeparator)
		builder.WriteString(integerPart[index : index+thousandsGroupSize])
	}
	if hasFraction {
		builder.WriteString(".")
		builder.WriteString(fractionPart)
	}
	return builder.String()
}
