package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// PrintInfo is the edition/printing information recovered from free text.
type PrintInfo struct {
	EditionNumber *int
	PrintNumber   *int
}

const numeral = `([0-9一二三四五六七八九十两〇零]+)`

type numberPattern struct {
	re    *regexp.Regexp
	fixed int // used when the pattern has no capture group
}

// Evaluated in order; the first match wins.
var editionPatterns = []numberPattern{
	{re: regexp.MustCompile(`版\s*次\s*[：:]\s*` + numeral)},
	{re: regexp.MustCompile(`[首初]版`), fixed: 1},
	{re: regexp.MustCompile(`第?` + numeral + `版`)},
	{re: regexp.MustCompile(`(?i)\bfirst\s+edition\b`), fixed: 1},
	{re: regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\s+edition\b`)},
}

var printPatterns = []numberPattern{
	{re: regexp.MustCompile(`印\s*次\s*[：:]\s*` + numeral)},
	{re: regexp.MustCompile(`[首初]印`), fixed: 1},
	// Only 次 may sit between the number and 印, so "版次：1 印次：3"
	// never reads as a first print.
	{re: regexp.MustCompile(`第?` + numeral + `次?印`)},
	{re: regexp.MustCompile(`(?i)\bfirst\s+print(?:ing)?\b`), fixed: 1},
	{re: regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\s+print(?:ing)?\b`)},
}

// ParsePrintInfo extracts edition and print numbers from a free-text print
// description such as "2010年1月第1版第3次印刷" or "首版首印". Unrecognized
// text yields nil numbers.
func ParsePrintInfo(text string) PrintInfo {
	s := norm.NFKC.String(strings.TrimSpace(text))
	if s == "" {
		return PrintInfo{}
	}
	return PrintInfo{
		EditionNumber: firstNumber(editionPatterns, s),
		PrintNumber:   firstNumber(printPatterns, s),
	}
}

func firstNumber(patterns []numberPattern, s string) *int {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if p.fixed > 0 {
			n := p.fixed
			return &n
		}
		if n, ok := parseNumeral(m[1]); ok && n > 0 && n < 100 {
			return &n
		}
	}
	return nil
}

var cnDigits = map[rune]int{
	'〇': 0, '零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// parseNumeral parses Arabic digits or Chinese numerals up to 99.
func parseNumeral(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	runes := []rune(s)
	if idx := indexRune(runes, '十'); idx >= 0 {
		tens, ones := 1, 0
		if idx > 0 {
			d, ok := cnDigits[runes[idx-1]]
			if !ok || idx > 1 {
				return 0, false
			}
			tens = d
		}
		if idx < len(runes)-1 {
			d, ok := cnDigits[runes[idx+1]]
			if !ok || idx+2 < len(runes) {
				return 0, false
			}
			ones = d
		}
		return tens*10 + ones, true
	}

	n := 0
	for _, r := range runes {
		d, ok := cnDigits[r]
		if !ok {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

func indexRune(runes []rune, target rune) int {
	for i, r := range runes {
		if r == target {
			return i
		}
	}
	return -1
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"2006-01",
	"2006/01",
	"2006.01",
	"2006-1",
	"2006",
}

var cnDate = regexp.MustCompile(`(\d{4})\s*年\s*(?:(\d{1,2})\s*月)?\s*(?:(\d{1,2})\s*日)?`)

// ParseDate parses the date layouts seen in book listings, including
// "2010年1月" forms. It returns nil when nothing parses.
func ParseDate(text string) *time.Time {
	s := norm.NFKC.String(strings.TrimSpace(text))
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	if m := cnDate.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, day := 1, 1
		if m[2] != "" {
			month, _ = strconv.Atoi(m[2])
		}
		if m[3] != "" {
			day, _ = strconv.Atoi(m[3])
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return nil
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}
