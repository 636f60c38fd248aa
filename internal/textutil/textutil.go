// Package textutil holds the text helpers shared by the adapters and the
// scoring engine. Keyword matching across the whole service goes through
// Normalize so accents and casing coming from the government APIs never
// matter.
package textutil

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// Normalize upper-cases the input, decomposes accented characters, strips the
// combining marks and trims surrounding whitespace. It is idempotent and safe
// on empty input: Normalize("Educação") == "EDUCACAO".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Malformed UTF-8 from upstream; fall back to the raw bytes.
		out = s
	}
	return strings.TrimSpace(strings.ToUpper(out))
}

// FormatCurrency renders a value as Brazilian Reais ("R$ 1.234,56").
func FormatCurrency(v float64) string {
	return ptBR.Sprintf("R$ %.2f", v)
}

// ParseBRDecimal parses a pt-BR formatted decimal string ("1.234,56") into a
// float64. The Senate indemnity endpoints encode amounts this way. Malformed
// or empty input parses to 0 rather than an error: a missing amount means a
// zero expense line, never a failed profile.
func ParseBRDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
