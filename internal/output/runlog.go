package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bookvalue/internal/model"
)

// RunLogHeader opens the markdown run log.
const RunLogHeader = "# Book Runs\n\n"

// RunLogBlock renders one run as markdown list lines, one per book:
// "- title | run | score | rationale".
func RunLogBlock(runID string, books []model.ScoredBook) string {
	var b strings.Builder
	for i := range books {
		book := &books[i]
		rationale := ""
		if book.Judgment != nil {
			rationale = oneLine(book.Judgment.Rationale)
		}
		fmt.Fprintf(&b, "- %s | %s | %s | %s\n",
			oneLine(book.Record.Title()), runID, fmtFloat(book.FinalScore), rationale)
	}
	b.WriteString("\n")
	return b.String()
}

// PrependRunLog adds this run's block at the top of the run log at path,
// below the header. Earlier runs follow, newest first.
func PrependRunLog(path, runID string, books []model.ScoredBook) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "output: read run log %s", path)
	}

	rest := strings.Replace(string(existing), RunLogHeader, "", 1)
	content := RunLogHeader + RunLogBlock(runID, books) + rest

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir for %s", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return eris.Wrapf(err, "output: write run log %s", path)
	}
	return nil
}
