// Package normalize coerces raw supply and demand records into the canonical
// book schema. Normalization never fails: unparseable fields fall back to
// their defaults and are listed in the record's Defaults annotation.
package normalize

import (
	"fmt"
	"strings"

	"github.com/sells-group/bookvalue/internal/model"
)

// Supply normalizes one supply (retail listing) record. index is the
// record's position in its input array and only feeds the fallback ID.
func Supply(raw model.RawSupplyRecord, index int) model.NormalizedBookRecord {
	r := model.NormalizedBookRecord{
		Source:    model.SourceSupply,
		Title:     firstText(raw, "title", "name"),
		Author:    firstText(raw, "author", "authors"),
		Publisher: text(raw["publisher"]),
		PrintInfo: text(raw["print_info"]),
		URL:       firstText(raw, "jd_url", "url"),
	}
	var defaults []string

	r.ISBN13 = ISBN13(text(raw["isbn"]))
	if r.ISBN13 == nil {
		defaults = append(defaults, "isbn13")
	}

	info := ParsePrintInfo(r.PrintInfo)
	r.EditionNumber = info.EditionNumber
	r.PrintNumber = info.PrintNumber
	if r.EditionNumber == nil {
		defaults = append(defaults, "edition_number")
	}
	if r.PrintNumber == nil {
		defaults = append(defaults, "print_number")
	}
	r.IsFirstEdition, r.IsFirstPrint = firstFlags(raw, info)
	if r.EditionNumber == nil && !hasExplicit(raw, "is_first_edition") {
		defaults = append(defaults, "is_first_edition")
	}
	if r.PrintNumber == nil && !hasExplicit(raw, "is_first_print") {
		defaults = append(defaults, "is_first_print")
	}

	r.PrintDate = ParseDate(firstText(raw, "print_date", "publish_date"))
	if r.PrintDate == nil {
		r.PrintDate = ParseDate(r.PrintInfo)
	}
	if r.PrintDate == nil {
		defaults = append(defaults, "print_date")
	}

	r.Binding = Binding(text(raw["binding"]))
	if r.Binding == model.BindingUnknown {
		defaults = append(defaults, "binding")
	}

	r.Price = floatValue(firstValue(raw, "price_now", "price"))
	if r.Price == nil {
		defaults = append(defaults, "price")
	}
	r.ListPrice = floatValue(firstValue(raw, "price_list", "list_price"))

	r.InStock = Stock(firstValue(raw, "in_stock", "stock_status"))
	if r.InStock == nil {
		defaults = append(defaults, "in_stock")
	}

	r.IsLimited, _ = boolValue(raw["is_limited"])
	r.IsSigned, _ = boolValue(raw["is_signed"])
	if b, ok := boolValue(raw["second_hand_premium"]); ok {
		r.SecondHandPremium = &b
	}

	r.ID = recordID(model.SourceSupply, index, firstText(raw, "sku", "id", "jd_id"), r.ISBN13)
	r.Defaults = defaults
	return r
}

// Demand normalizes one demand (ratings and cultural status) record.
func Demand(raw model.RawDemandRecord, index int) model.NormalizedBookRecord {
	r := model.NormalizedBookRecord{
		Source:    model.SourceDemand,
		Title:     firstText(raw, "title", "name"),
		Author:    firstText(raw, "author", "authors"),
		Publisher: text(raw["publisher"]),
		PrintInfo: text(raw["print_info"]),
		Binding:   Binding(text(raw["binding"])),
		URL:       firstText(raw, "douban_url", "url"),
		AuthorBio: text(raw["author_bio"]),
	}
	var defaults []string

	r.ISBN13 = ISBN13(text(raw["isbn"]))
	if r.ISBN13 == nil {
		defaults = append(defaults, "isbn13")
	}

	info := ParsePrintInfo(r.PrintInfo)
	r.EditionNumber = info.EditionNumber
	r.PrintNumber = info.PrintNumber
	r.IsFirstEdition, r.IsFirstPrint = firstFlags(raw, info)
	r.PrintDate = ParseDate(firstText(raw, "print_date", "publish_date"))

	r.Rating = floatValue(raw["rating"])
	if r.Rating == nil {
		defaults = append(defaults, "rating")
	}
	if n, ok := intValue(raw["rating_count"]); ok {
		r.RatingCount = n
	} else {
		defaults = append(defaults, "rating_count")
	}

	r.Tags = stringList(raw["tags"])
	r.Awards = stringList(raw["awards"])
	r.ReviewKeywords = stringList(raw["review_keywords"])
	r.Adapted, _ = boolValue(raw["adapted"])

	r.ID = recordID(model.SourceDemand, index, firstText(raw, "id", "douban_id", "subject_id"), r.ISBN13)
	r.Defaults = defaults
	return r
}

// SupplyBatch normalizes a supply array, guaranteeing unique IDs.
func SupplyBatch(raws []model.RawSupplyRecord) []model.NormalizedBookRecord {
	out := make([]model.NormalizedBookRecord, len(raws))
	for i, raw := range raws {
		out[i] = Supply(raw, i)
	}
	dedupeIDs(out)
	return out
}

// DemandBatch normalizes a demand array, guaranteeing unique IDs.
func DemandBatch(raws []model.RawDemandRecord) []model.NormalizedBookRecord {
	out := make([]model.NormalizedBookRecord, len(raws))
	for i, raw := range raws {
		out[i] = Demand(raw, i)
	}
	dedupeIDs(out)
	return out
}

// firstFlags resolves the first-edition/first-print booleans. Parsed
// numbers take precedence; explicit boolean fields are the fallback; the
// default is false.
func firstFlags(raw map[string]any, info PrintInfo) (bool, bool) {
	var edition, printing bool
	if info.EditionNumber != nil {
		edition = *info.EditionNumber == 1
	} else {
		edition, _ = boolValue(raw["is_first_edition"])
	}
	if info.PrintNumber != nil {
		printing = *info.PrintNumber == 1
	} else {
		printing, _ = boolValue(raw["is_first_print"])
	}
	return edition, printing
}

func hasExplicit(raw map[string]any, key string) bool {
	_, ok := boolValue(raw[key])
	return ok
}

func firstValue(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func recordID(source model.Source, index int, key string, isbn *string) string {
	switch {
	case key != "":
		return fmt.Sprintf("%s:%s", source, strings.ReplaceAll(key, " ", ""))
	case isbn != nil:
		return fmt.Sprintf("%s:isbn-%s", source, *isbn)
	default:
		return fmt.Sprintf("%s:#%d", source, index)
	}
}

func dedupeIDs(records []model.NormalizedBookRecord) {
	seen := make(map[string]bool, len(records))
	for i := range records {
		id := records[i].ID
		if seen[id] {
			id = fmt.Sprintf("%s#%d", id, i)
			records[i].ID = id
		}
		seen[id] = true
	}
}
