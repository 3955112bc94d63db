package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/skillmatrix/internal/matrix"
)

// Capture groups of salaryPattern.
const (
	salaryPrefixCode = iota + 1
	salaryPrefixSymbol
	salaryMin
	salaryMinK
	salaryMax
	salaryMaxK
	salarySuffixCode
	salarySuffixZloty
	salarySuffixSymbol
)

var salaryPattern = regexp.MustCompile(`(?i)` +
	`(?:\b(usd|eur|pln|gbp|zł|zl)\s*|([$€£])\s*)?` +
	`(\d{2,5})(k)?` +
	`(?:\s*(?:-|–|to)\s*[$€£]?\s*(\d{2,5})(k)?)?` +
	`(?:\s*(?:(usd|eur|pln|gbp|zl)\b|(zł)|([$€£])))?` +
	`(?:\s*/?\s*(?:year|month))?`)

var currencyAliases = map[string]matrix.Currency{
	"$":   matrix.CurrencyUSD,
	"usd": matrix.CurrencyUSD,
	"€":   matrix.CurrencyEUR,
	"eur": matrix.CurrencyEUR,
	"£":   matrix.CurrencyGBP,
	"gbp": matrix.CurrencyGBP,
	"pln": matrix.CurrencyPLN,
	"zl":  matrix.CurrencyPLN,
	"zł":  matrix.CurrencyPLN,
}

// ParseSalary returns the first salary range in the document that carries a
// recognizable currency and at least one non-zero amount. Amounts with a "k"
// suffix are multiplied by 1000 and an inverted range is swapped. Bare numbers
// without a currency never produce a salary.
func ParseSalary(doc string) *matrix.Salary {
	for _, loc := range salaryPattern.FindAllStringSubmatchIndex(doc, -1) {
		if truncatedAmount(doc, loc) {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = doc[loc[2*i]:loc[2*i+1]]
			}
		}
		if salary := salaryFromMatch(m); salary != nil {
			return salary
		}
	}
	return nil
}

// truncatedAmount reports whether an amount group stopped inside a longer run
// of digits, which means the number is out of the accepted range.
func truncatedAmount(doc string, loc []int) bool {
	for _, group := range []int{salaryMin, salaryMax} {
		end := loc[2*group+1]
		if end >= 0 && end < len(doc) && doc[end] >= '0' && doc[end] <= '9' {
			return true
		}
	}
	return false
}

func salaryFromMatch(m []string) *matrix.Salary {
	currency, ok := resolveCurrency(m)
	if !ok {
		return nil
	}

	low := parseAmount(m[salaryMin], m[salaryMinK])
	high := parseAmount(m[salaryMax], m[salaryMaxK])
	if low == nil && high == nil {
		return nil
	}

	if low != nil && high != nil && *high < *low {
		low, high = high, low
	}

	return &matrix.Salary{Currency: currency, Min: low, Max: high}
}

func resolveCurrency(m []string) (matrix.Currency, bool) {
	// Explicit codes win over symbols.
	for _, idx := range []int{salaryPrefixCode, salarySuffixCode, salarySuffixZloty, salaryPrefixSymbol, salarySuffixSymbol} {
		key := strings.ToLower(m[idx])
		if key == "" {
			continue
		}
		if c, ok := currencyAliases[key]; ok {
			return c, true
		}
	}
	return "", false
}

func parseAmount(raw, suffix string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v == 0 {
		return nil
	}
	if suffix != "" {
		v *= 1000
	}
	return &v
}
