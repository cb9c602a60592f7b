package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var isbnPrefix = regexp.MustCompile(`(?i)^\s*isbn(?:[-\s]?1[03])?\s*[:：]?\s*`)

// ISBN13 normalizes an ISBN-10 or ISBN-13 string to a checksum-valid
// 13-digit ISBN. It returns nil when the input cannot be resolved to one.
func ISBN13(raw string) *string {
	s := norm.NFKC.String(raw)
	s = isbnPrefix.ReplaceAllString(s, "")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		case r == '-' || r == ' ' || r == '.' || r == '_' || r == '\t':
			// separators
		default:
			return nil
		}
	}
	digits := b.String()

	switch len(digits) {
	case 13:
		if !validISBN13(digits) {
			return nil
		}
		return &digits
	case 10:
		if !validISBN10(digits) {
			return nil
		}
		converted := isbn10To13(digits)
		return &converted
	default:
		return nil
	}
}

func validISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}

func validISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		c := s[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' && i == 9:
			d = 10
		default:
			return false
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

func isbn10To13(s string) string {
	body := "978" + s[:9]
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check))
}
