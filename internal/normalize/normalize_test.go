package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bookvalue/internal/model"
)

func TestISBN13(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain 13", "9787108009821", "9787108009821"},
		{"hyphenated 13", "978-7-108-00982-1", "9787108009821"},
		{"prefixed", "ISBN: 978-7-108-00982-1", "9787108009821"},
		{"prefixed 13", "ISBN-13 9787108009821", "9787108009821"},
		{"full width digits", "９７８７１０８００９８２１", "9787108009821"},
		{"isbn10 converted", "0-306-40615-2", "9780306406157"},
		{"isbn10 with X", "080442957X", "9780804429573"},
		{"bad checksum 13", "9787108009822", ""},
		{"bad checksum 10", "0306406153", ""},
		{"too short", "97871080", ""},
		{"letters", "97871080098ab", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ISBN13(tt.in)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
			assert.Len(t, *got, 13)
		})
	}
}

func TestParsePrintInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          string
		wantEdition int
		wantPrint   int
	}{
		{"full chinese", "2010年1月第1版第3次印刷", 1, 3},
		{"first first", "首版首印", 1, 1},
		{"numeral words", "一版一印", 1, 1},
		{"short form", "2版5印", 2, 5},
		{"chinese tens", "第十二次印刷 第二版", 2, 12},
		{"edition only", "首版", 1, 0},
		{"print only", "首印", 0, 1},
		{"english", "First edition, 2nd printing", 1, 2},
		{"labelled fields", "版次：2 印次：5", 2, 5},
		{"labelled third print", "版次：1 印次：3", 1, 3},
		{"labelled ascii colon", "版次: 1 印次: 1", 1, 1},
		{"print label only", "印次：4", 0, 4},
		{"spaced numbers", "1 印", 0, 0},
		{"unparseable", "精装典藏", 0, 0},
		{"empty", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParsePrintInfo(tt.in)
			if tt.wantEdition == 0 {
				assert.Nil(t, got.EditionNumber)
			} else {
				require.NotNil(t, got.EditionNumber)
				assert.Equal(t, tt.wantEdition, *got.EditionNumber)
			}
			if tt.wantPrint == 0 {
				assert.Nil(t, got.PrintNumber)
			} else {
				require.NotNil(t, got.PrintNumber)
				assert.Equal(t, tt.wantPrint, *got.PrintNumber)
			}
		})
	}
}

func TestParseNumeral(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"3": 3, "一": 1, "十": 10, "十二": 12, "二十": 20, "二十三": 23, "两": 2,
	}
	for in, want := range tests {
		got, ok := parseNumeral(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := parseNumeral("版")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2010-01-15", time.Date(2010, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2010/3/2", time.Date(2010, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"2010-07", time.Date(2010, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"1998", time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2010年1月第1版", time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2006年5月20日", time.Date(2006, 5, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got := ParseDate(tt.in)
		require.NotNil(t, got, tt.in)
		assert.True(t, tt.want.Equal(*got), tt.in)
	}

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("soon"))
}

func TestBinding(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.BindingHardcover, Binding("精装"))
	assert.Equal(t, model.BindingHardcover, Binding(" Hardcover "))
	assert.Equal(t, model.BindingPaperback, Binding("平装"))
	assert.Equal(t, model.BindingPaperback, Binding("Paperback"))
	assert.Equal(t, model.BindingUnknown, Binding("线装"))
	assert.Equal(t, model.BindingUnknown, Binding(""))
}

func TestStock(t *testing.T) {
	t.Parallel()

	outOf := Stock("暂时无货")
	require.NotNil(t, outOf)
	assert.False(t, *outOf)

	unavailable := Stock("Unavailable")
	require.NotNil(t, unavailable)
	assert.False(t, *unavailable)

	in := Stock("现货")
	require.NotNil(t, in)
	assert.True(t, *in)

	for _, phrase := range []string{"Not in stock", "not available", "NOT_AVAILABLE", "no stock"} {
		negated := Stock(phrase)
		require.NotNil(t, negated, phrase)
		assert.False(t, *negated, phrase)
	}

	available := Stock("Available")
	require.NotNil(t, available)
	assert.True(t, *available)

	explicit := Stock(true)
	require.NotNil(t, explicit)
	assert.True(t, *explicit)

	assert.Nil(t, Stock("请咨询客服"))
	assert.Nil(t, Stock(nil))
}

func TestFloatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want *float64
	}{
		{59.0, fp(59)},
		{"59.80", fp(59.8)},
		{"¥1,280.00", fp(1280)},
		{42, fp(42)},
		{"免费", nil},
		{nil, nil},
		{true, nil},
	}
	for _, tt := range tests {
		got := floatValue(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "%v", tt.in)
			continue
		}
		require.NotNil(t, got, "%v", tt.in)
		assert.InDelta(t, *tt.want, *got, 0.0001)
	}
}

func TestStringList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"历史", "思想"}, stringList([]any{"历史", " 思想 ", ""}))
	assert.Equal(t, []string{"历史", "思想", "经典"}, stringList("历史、思想,经典"))
	assert.Nil(t, stringList(nil))
	assert.Nil(t, stringList(""))
}

func TestSupply(t *testing.T) {
	t.Parallel()

	raw := model.RawSupplyRecord{
		"sku":                 "100012",
		"title":               " 万历十五年 ",
		"author":              "黄仁宇",
		"publisher":           "生活·读书·新知三联书店",
		"isbn":                "978-7-108-00982-1",
		"print_info":          "1997年5月第1版第1次印刷",
		"binding":             "精装",
		"price_now":           "¥88.00",
		"price_list":          68,
		"stock_status":        "缺货",
		"is_limited":          "是",
		"second_hand_premium": "yes",
	}

	r := Supply(raw, 0)
	assert.Equal(t, "supply:100012", r.ID)
	assert.Equal(t, model.SourceSupply, r.Source)
	assert.Equal(t, "万历十五年", r.Title)
	require.NotNil(t, r.ISBN13)
	assert.Equal(t, "9787108009821", *r.ISBN13)
	require.NotNil(t, r.EditionNumber)
	assert.Equal(t, 1, *r.EditionNumber)
	assert.True(t, r.IsFirstEdition)
	assert.True(t, r.IsFirstPrint)
	require.NotNil(t, r.PrintDate)
	assert.Equal(t, 1997, r.PrintDate.Year())
	assert.Equal(t, model.BindingHardcover, r.Binding)
	require.NotNil(t, r.Price)
	assert.InDelta(t, 88.0, *r.Price, 0.001)
	require.NotNil(t, r.ListPrice)
	assert.InDelta(t, 68.0, *r.ListPrice, 0.001)
	require.NotNil(t, r.InStock)
	assert.False(t, *r.InStock)
	assert.True(t, r.IsLimited)
	assert.False(t, r.IsSigned)
	require.NotNil(t, r.SecondHandPremium)
	assert.True(t, *r.SecondHandPremium)
	assert.Empty(t, r.Defaults)
}

func TestSupply_DefaultsWhenUndeterminable(t *testing.T) {
	t.Parallel()

	r := Supply(model.RawSupplyRecord{"title": "无名之书", "isbn": "12345", "price_now": "面议"}, 7)

	assert.Equal(t, "supply:#7", r.ID)
	assert.Nil(t, r.ISBN13)
	assert.Nil(t, r.EditionNumber)
	assert.Nil(t, r.PrintNumber)
	assert.Nil(t, r.Price)
	assert.Nil(t, r.InStock)
	assert.False(t, r.IsFirstEdition)
	assert.False(t, r.IsFirstPrint)
	assert.Equal(t, model.BindingUnknown, r.Binding)
	assert.Subset(t, r.Defaults, []string{"isbn13", "edition_number", "print_number", "is_first_edition", "is_first_print", "binding", "price", "in_stock"})
}

func TestSupply_ExplicitFlagsWithoutPrintInfo(t *testing.T) {
	t.Parallel()

	r := Supply(model.RawSupplyRecord{"title": "x", "is_first_edition": true, "is_first_print": "1"}, 0)
	assert.True(t, r.IsFirstEdition)
	assert.True(t, r.IsFirstPrint)
	assert.NotContains(t, r.Defaults, "is_first_edition")
}

func TestSupply_LabelledPrintInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		raw            model.RawSupplyRecord
		wantEdition    int
		wantPrint      int
		wantFirstEd    bool
		wantFirstPrint bool
	}{
		{
			name:           "third print with explicit first edition",
			raw:            model.RawSupplyRecord{"title": "x", "is_first_edition": true, "print_info": "版次：1 印次：3"},
			wantEdition:    1,
			wantPrint:      3,
			wantFirstEd:    true,
			wantFirstPrint: false,
		},
		{
			name:           "second edition fifth print",
			raw:            model.RawSupplyRecord{"title": "x", "print_info": "版次：2 印次：5"},
			wantEdition:    2,
			wantPrint:      5,
			wantFirstEd:    false,
			wantFirstPrint: false,
		},
		{
			name:           "labelled first first",
			raw:            model.RawSupplyRecord{"title": "x", "print_info": "版次：1 印次：1"},
			wantEdition:    1,
			wantPrint:      1,
			wantFirstEd:    true,
			wantFirstPrint: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Supply(tt.raw, 0)
			require.NotNil(t, r.EditionNumber)
			assert.Equal(t, tt.wantEdition, *r.EditionNumber)
			require.NotNil(t, r.PrintNumber)
			assert.Equal(t, tt.wantPrint, *r.PrintNumber)
			assert.Equal(t, tt.wantFirstEd, r.IsFirstEdition)
			assert.Equal(t, tt.wantFirstPrint, r.IsFirstPrint)
		})
	}
}

func TestDemand(t *testing.T) {
	t.Parallel()

	raw := model.RawDemandRecord{
		"id":              "1041482",
		"title":           "万历十五年",
		"author":          "黄仁宇",
		"isbn":            "9787108009821",
		"rating":          "8.9",
		"rating_count":    "123,456",
		"tags":            []any{"历史", "明朝"},
		"awards":          []any{},
		"adapted":         false,
		"review_keywords": "经典、必读",
		"author_bio":      "历史学家",
	}

	r := Demand(raw, 0)
	assert.Equal(t, "demand:1041482", r.ID)
	assert.Equal(t, model.SourceDemand, r.Source)
	require.NotNil(t, r.Rating)
	assert.InDelta(t, 8.9, *r.Rating, 0.001)
	assert.Equal(t, 123456, r.RatingCount)
	assert.Equal(t, []string{"历史", "明朝"}, r.Tags)
	assert.Nil(t, r.Awards)
	assert.Equal(t, []string{"经典", "必读"}, r.ReviewKeywords)
	assert.False(t, r.IsFirstEdition)
	assert.False(t, r.IsFirstPrint)
	assert.Equal(t, model.BindingUnknown, r.Binding)
}

func TestBatch_UniqueIDs(t *testing.T) {
	t.Parallel()

	supply := SupplyBatch([]model.RawSupplyRecord{
		{"sku": "A", "title": "one"},
		{"sku": "A", "title": "two"},
		{"title": "three"},
	})
	require.Len(t, supply, 3)
	assert.Equal(t, "supply:A", supply[0].ID)
	assert.Equal(t, "supply:A#1", supply[1].ID)
	assert.Equal(t, "supply:#2", supply[2].ID)

	demand := DemandBatch([]model.RawDemandRecord{{"isbn": "9787108009821"}, {"title": "x"}})
	assert.Equal(t, "demand:isbn-9787108009821", demand[0].ID)
	assert.Equal(t, "demand:#1", demand[1].ID)
}

func fp(f float64) *float64 { return &f }
