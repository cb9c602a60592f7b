package model

import "time"

// RawSupplyRecord is one loosely structured record from the supply (retail)
// source. Only the normalizer reads it.
type RawSupplyRecord map[string]any

// RawDemandRecord is one loosely structured record from the demand
// (reader ratings / cultural status) source. Only the normalizer reads it.
type RawDemandRecord map[string]any

// Source identifies which input set a record came from.
type Source string

const (
	SourceSupply Source = "supply"
	SourceDemand Source = "demand"
)

// Binding is the physical binding of a copy.
type Binding string

const (
	BindingHardcover Binding = "hardcover"
	BindingPaperback Binding = "paperback"
	BindingUnknown   Binding = "unknown"
)

// NormalizedBookRecord is the canonical book schema shared by both sources.
// Optional fields are nil when the source omitted them or they failed to parse.
type NormalizedBookRecord struct {
	ID     string `json:"id"`
	Source Source `json:"source"`

	ISBN13    *string `json:"isbn13,omitempty"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Publisher string  `json:"publisher,omitempty"`

	PrintInfo      string     `json:"print_info,omitempty"`
	EditionNumber  *int       `json:"edition_number,omitempty"`
	PrintNumber    *int       `json:"print_number,omitempty"`
	PrintDate      *time.Time `json:"print_date,omitempty"`
	IsFirstEdition bool       `json:"is_first_edition"`
	IsFirstPrint   bool       `json:"is_first_print"`
	Binding        Binding    `json:"binding"`
	IsLimited      bool       `json:"is_limited"`
	IsSigned       bool       `json:"is_signed"`

	Price             *float64 `json:"price,omitempty"`
	ListPrice         *float64 `json:"list_price,omitempty"`
	InStock           *bool    `json:"in_stock,omitempty"`
	SecondHandPremium *bool    `json:"second_hand_premium,omitempty"`

	Rating         *float64 `json:"rating,omitempty"`
	RatingCount    int      `json:"rating_count"`
	Tags           []string `json:"tags,omitempty"`
	Awards         []string `json:"awards,omitempty"`
	Adapted        bool     `json:"adapted"`
	ReviewKeywords []string `json:"review_keywords,omitempty"`
	AuthorBio      string   `json:"author_bio,omitempty"`

	URL string `json:"url,omitempty"`

	// Defaults lists fields that were absent or unparseable and fell back to
	// their default value.
	Defaults []string `json:"defaults,omitempty"`
}

// Usable reports whether the record carries enough identity to be matched.
func (r *NormalizedBookRecord) Usable() bool {
	return r.Title != "" || r.ISBN13 != nil
}

// FirstEditionFirstPrint reports whether both first-edition and first-print
// flags are set.
func (r *NormalizedBookRecord) FirstEditionFirstPrint() bool {
	return r.IsFirstEdition && r.IsFirstPrint
}

// MatchMethod records how a matched record was paired.
type MatchMethod string

const (
	MatchISBN       MatchMethod = "isbn"
	MatchSimilarity MatchMethod = "similarity"
	MatchNone       MatchMethod = "none"
)

// MatchedBookRecord pairs at most one supply record with at most one demand
// record. At least one side is always present.
type MatchedBookRecord struct {
	ID         string                `json:"id"`
	Supply     *NormalizedBookRecord `json:"supply,omitempty"`
	Demand     *NormalizedBookRecord `json:"demand,omitempty"`
	Method     MatchMethod           `json:"match_method"`
	Similarity float64               `json:"similarity,omitempty"`
}

// Matched reports whether both sides are present.
func (m *MatchedBookRecord) Matched() bool {
	return m.Supply != nil && m.Demand != nil
}

// Primary returns the record used for identity and display: supply when
// present, otherwise demand.
func (m *MatchedBookRecord) Primary() *NormalizedBookRecord {
	if m.Supply != nil {
		return m.Supply
	}
	return m.Demand
}

// Title returns the display title.
func (m *MatchedBookRecord) Title() string {
	if m.Supply != nil && m.Supply.Title != "" {
		return m.Supply.Title
	}
	if m.Demand != nil {
		return m.Demand.Title
	}
	return ""
}

// Author returns the display author.
func (m *MatchedBookRecord) Author() string {
	if m.Supply != nil && m.Supply.Author != "" {
		return m.Supply.Author
	}
	if m.Demand != nil {
		return m.Demand.Author
	}
	return ""
}

// ISBN13 returns the first known ISBN-13 across both sides.
func (m *MatchedBookRecord) ISBN13() *string {
	if m.Supply != nil && m.Supply.ISBN13 != nil {
		return m.Supply.ISBN13
	}
	if m.Demand != nil {
		return m.Demand.ISBN13
	}
	return nil
}

// Origin returns the single source of an unmatched record, or empty when
// the record is matched.
func (m *MatchedBookRecord) Origin() Source {
	switch {
	case m.Matched():
		return ""
	case m.Supply != nil:
		return SourceSupply
	default:
		return SourceDemand
	}
}
