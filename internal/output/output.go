// Package output writes run artifacts: the scored book list and the
// markdown run log.
package output

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bookvalue/internal/model"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ScoredFileName returns the file name for a scored book list.
func ScoredFileName(format string) string {
	if format == FormatCSV {
		return "books_scored.csv"
	}
	return "books_scored.json"
}

// csvHeader is the column order of the CSV export.
var csvHeader = []string{
	"id", "title", "author", "isbn13", "match_method",
	"structured_raw", "structured_final", "first_edition_penalty",
	"classic_potential", "era_significance", "ip_potential", "structured_adjustment",
	"confidence", "degraded", "adjusted_structured", "final_score", "tier", "rationale",
}

// WriteJSON encodes books as an indented JSON array.
func WriteJSON(w io.Writer, books []model.ScoredBook) error {
	if books == nil {
		books = []model.ScoredBook{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(books); err != nil {
		return eris.Wrap(err, "output: encode json")
	}
	return nil
}

// WriteCSV writes one row per book. Judgment columns are empty for books
// that were not judged.
func WriteCSV(w io.Writer, books []model.ScoredBook) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "output: write csv header")
	}

	for i := range books {
		if err := cw.Write(csvRow(&books[i])); err != nil {
			return eris.Wrapf(err, "output: write csv row %d", i)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "output: flush csv")
	}
	return nil
}

func csvRow(b *model.ScoredBook) []string {
	isbn := ""
	if p := b.Record.ISBN13(); p != nil {
		isbn = *p
	}

	row := []string{
		b.Record.ID,
		b.Record.Title(),
		b.Record.Author(),
		isbn,
		string(b.Record.Method),
		fmtFloat(b.Structured.RawScore),
		fmtFloat(b.Structured.FinalScore),
		strconv.FormatBool(b.Structured.FirstEditionPenalty),
	}

	if j := b.Judgment; j != nil {
		row = append(row,
			fmtFloat(j.ClassicPotential),
			fmtFloat(j.EraSignificance),
			fmtFloat(j.IPPotential),
			fmtFloat(j.StructuredAdjustment),
			fmtFloat(j.Confidence),
			strconv.FormatBool(j.Degraded),
		)
	} else {
		row = append(row, "", "", "", "", "", "")
	}

	rationale := ""
	if b.Judgment != nil {
		rationale = b.Judgment.Rationale
	}
	return append(row,
		fmtFloat(b.AdjustedStructured),
		fmtFloat(b.FinalScore),
		b.Tier.String(),
		rationale,
	)
}

// WriteScored writes books to dir in the given format and returns the path.
func WriteScored(dir, format string, books []model.ScoredBook) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "output: create dir %s", dir)
	}
	path := filepath.Join(dir, ScoredFileName(format))

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "output: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	switch format {
	case FormatCSV:
		err = WriteCSV(f, books)
	default:
		err = WriteJSON(f, books)
	}
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "output: close %s", path)
	}
	return path, nil
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// oneLine collapses whitespace so a value fits on one markdown list line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
