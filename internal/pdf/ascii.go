package pdf

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Characters that decomposition alone cannot reduce to ASCII.
var special = strings.NewReplacer(
	"ł", "l", "Ł", "L",
	"ß", "ss",
	"đ", "d", "Đ", "D",
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ToASCII transliterates accented characters to plain ASCII so client names
// stay safe in filenames and Content-Disposition headers. Characters with no
// ASCII equivalent are dropped.
func ToASCII(s string) string {
	s = special.Replace(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Filename derives a download filename from the document kind, number and
// client name, e.g. "invoice-INV-2026-0001-Jan-Kowalski.pdf".
func Filename(kind, number, clientName string) string {
	parts := []string{kind}
	if number != "" {
		parts = append(parts, number)
	}
	if name := sanitize(ToASCII(clientName)); name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, "-") + ".pdf"
}

// sanitize keeps letters, digits and dashes; runs of anything else collapse
// to a single dash.
func sanitize(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
