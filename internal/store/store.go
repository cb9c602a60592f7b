// Package store persists scoring runs and their scored books.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bookvalue/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunStore is the run ledger.
type RunStore interface {
	// Runs
	CreateRun(ctx context.Context, backend string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats model.RunStats) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error)

	// Scored books
	SaveScoredBooks(ctx context.Context, runID string, books []model.ScoredBook) error
	ListScoredBooks(ctx context.Context, runID string) ([]model.ScoredBook, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// defaultListLimit caps run listings without an explicit limit.
const defaultListLimit = 100

func listLimit(filter model.RunFilter) int {
	if filter.Limit <= 0 {
		return defaultListLimit
	}
	return filter.Limit
}

// bookRow is the flattened form of a scored book shared by both backends.
type bookRow struct {
	position   int
	recordID   string
	title      string
	finalScore float64
	tier       string
	payload    []byte
}

func bookRows(books []model.ScoredBook) ([]bookRow, error) {
	rows := make([]bookRow, len(books))
	for i := range books {
		b := &books[i]
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, eris.Wrapf(err, "store: marshal book %s", b.Record.ID)
		}
		rows[i] = bookRow{
			position:   i,
			recordID:   b.Record.ID,
			title:      b.Record.Title(),
			finalScore: b.FinalScore,
			tier:       b.Tier.String(),
			payload:    payload,
		}
	}
	return rows, nil
}

func decodeBook(payload []byte) (model.ScoredBook, error) {
	var b model.ScoredBook
	if err := json.Unmarshal(payload, &b); err != nil {
		return b, eris.Wrap(err, "store: unmarshal book")
	}
	return b, nil
}

func encodeStats(stats model.RunStats) ([]byte, error) {
	data, err := json.Marshal(stats)
	return data, eris.Wrap(err, "store: marshal stats")
}

func decodeStats(data []byte, stats *model.RunStats) error {
	if len(data) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(data, stats), "store: unmarshal stats")
}
