package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/bookvalue/internal/model"
)

// text returns the trimmed string form of a raw value, or "" for nil.
func text(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(norm.NFKC.String(s))
}

// firstText returns the first non-empty string among the given keys.
func firstText(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := text(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

var truthy = map[string]bool{
	"1": true, "true": true, "t": true, "yes": true, "y": true, "是": true, "有": true,
}

var falsy = map[string]bool{
	"0": true, "false": true, "f": true, "no": true, "n": true, "否": true, "无": true, "没有": true,
}

// boolValue coerces a raw value to a boolean. The second result is false
// when the value is absent or not recognizable.
func boolValue(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, false
	case bool:
		return t, true
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch {
		case truthy[s]:
			return true, true
		case falsy[s]:
			return false, true
		default:
			return false, false
		}
	default:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return false, false
		}
		return b, true
	}
}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// floatValue coerces prices and ratings. Currency symbols and thousands
// separators are stripped from strings.
func floatValue(v any) *float64 {
	switch t := v.(type) {
	case nil, bool:
		return nil
	case string:
		s := strings.TrimSpace(norm.NFKC.String(t))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
		cleaned := nonNumeric.ReplaceAllString(s, "")
		if cleaned == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil
		}
		return &f
	}
}

var nonDigit = regexp.MustCompile(`[^0-9]`)

// intValue coerces counts such as "12,345人评价".
func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		cleaned := nonDigit.ReplaceAllString(norm.NFKC.String(t), "")
		if cleaned == "" {
			return 0, false
		}
		n, err := strconv.Atoi(cleaned)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		n, err := cast.ToIntE(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}

var listSeparators = regexp.MustCompile(`[,，、/;；|]+|\s{2,}`)

// stringList coerces tag-like values from arrays or delimited strings.
func stringList(v any) []string {
	var items []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		items = listSeparators.Split(t, -1)
	default:
		list, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil
		}
		items = list
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(norm.NFKC.String(item))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Binding maps source binding descriptions onto the binding enum.
func Binding(v string) model.Binding {
	s := strings.ToLower(strings.TrimSpace(norm.NFKC.String(v)))
	switch {
	case s == "":
		return model.BindingUnknown
	case strings.Contains(s, "精装"), strings.Contains(s, "硬壳"), strings.Contains(s, "hardcover"),
		strings.Contains(s, "hardback"), strings.Contains(s, "hard cover"):
		return model.BindingHardcover
	case strings.Contains(s, "平装"), strings.Contains(s, "简装"), strings.Contains(s, "paperback"),
		strings.Contains(s, "softcover"), strings.Contains(s, "soft cover"):
		return model.BindingPaperback
	default:
		return model.BindingUnknown
	}
}

// Negated forms must stay here since the in-stock phrases are substrings of them.
var outOfStockPhrases = []string{
	"无货", "缺货", "售罄", "暂时无货", "下架",
	"out of stock", "out_of_stock", "sold out", "unavailable", "low_stock", "low stock",
	"not in stock", "not_in_stock", "not available", "not_available", "no stock",
}

var inStockPhrases = []string{"有货", "现货", "in stock", "in_stock", "available"}

// Stock interprets a stock status description. It returns nil when the
// phrasing is not recognized.
func Stock(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	s := strings.ToLower(text(v))
	if s == "" {
		return nil
	}
	for _, p := range outOfStockPhrases {
		if strings.Contains(s, p) {
			f := false
			return &f
		}
	}
	for _, p := range inStockPhrases {
		if strings.Contains(s, p) {
			t := true
			return &t
		}
	}
	return nil
}
