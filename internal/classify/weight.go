package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// weightPattern matches the first quantity+unit token in a product name,
// e.g. "500g", "1.5 kg", "1,5kg". Comma is accepted as decimal separator.
var weightPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s?(kg|g|l|ml)\b`)

// maxGrams caps parsed weights. Anything past it is nonsense for a food
// item and would overflow the int64 conversion below.
const maxGrams = 1e12

// Weight is a weight parsed out of a product name, normalized to grams.
// Raw keeps the exact token that matched. Volume units are treated as
// mass-equivalent by convention (1 ml ~ 1 g).
type Weight struct {
	Grams int64  `json:"grams"`
	Raw   string `json:"raw"`
}

// ExtractWeight scans name for a quantity+unit token and converts it to
// grams. It returns nil when no token is found; absence of a weight is not
// the same as zero.
func ExtractWeight(name string) *Weight {
	m := weightPattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	switch strings.ToLower(m[2]) {
	case "kg", "l":
		value *= 1000
	}
	grams := math.Round(value)
	if grams > maxGrams {
		return nil
	}
	return &Weight{Grams: int64(grams), Raw: m[0]}
}
