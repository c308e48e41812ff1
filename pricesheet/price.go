package pricesheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reCurrency   = regexp.MustCompile(`(?i)(r\$|us\$|\$|€|brl|usd)`)
	reBrGrouped  = regexp.MustCompile(`^\d{1,3}(\.\d{3})+,\d{2}$`)
	reUsGrouped  = regexp.MustCompile(`^\d{1,3}(,\d{3})+\.\d{2}$`)
	reCommaDec   = regexp.MustCompile(`^\d+,\d{1,2}$`)
	reSpaceGroup = regexp.MustCompile(`^\d{1,3}( \d{3})+[,.]\d{2}$`)
	reNotNumeric = regexp.MustCompile(`[^0-9.\-]`)
)

// ParsePrice converts a raw price cell into a float. It never fails:
// anything unparseable comes back as 0. The regional formats are tried
// in a fixed order because naive separator stripping corrupts either
// Brazilian ("1.234,56") or US ("1,234.56") values.
func ParsePrice(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	neg := strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") ||
		(strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"))

	s = reCurrency.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "()-")
	s = strings.TrimSpace(s)

	compact := strings.ReplaceAll(s, " ", "")

	switch {
	case reBrGrouped.MatchString(compact):
		compact = strings.ReplaceAll(compact, ".", "")
		compact = strings.ReplaceAll(compact, ",", ".")
	case reUsGrouped.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", "")
	case reCommaDec.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", ".")
	case reSpaceGroup.MatchString(s):
		compact = strings.ReplaceAll(s, " ", "")
		compact = strings.ReplaceAll(compact, ".", "")
		compact = strings.ReplaceAll(compact, ",", ".")
	default:
		compact = resolveAmbiguous(compact)
	}

	compact = reNotNumeric.ReplaceAllString(compact, "")
	if compact == "" || compact == "-" || compact == "." {
		return 0
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(compact, "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if neg && v > 0 {
		v = -v
	}
	return v
}

// ParsePriceValue accepts the loose cell types excelize and JSON payloads
// produce. Finite numeric input passes through unchanged.
func ParsePriceValue(raw interface{}) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case float32:
		return ParsePriceValue(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return ParsePrice(v)
	default:
		return 0
	}
}

// resolveAmbiguous handles values that match none of the known grouped
// formats. When both separators appear the rightmost one is taken as the
// decimal point and the other is dropped as a thousands separator. A lone
// comma is treated as a decimal comma.
func resolveAmbiguous(s string) string {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")

	if dot >= 0 && comma >= 0 {
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	}
	if comma >= 0 {
		// rightmost comma is the decimal point, any earlier ones are noise
		head := strings.ReplaceAll(s[:comma], ",", "")
		return head + "." + s[comma+1:]
	}
	return s
}
