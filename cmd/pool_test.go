package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bookvalue/internal/model"
)

func TestFormatPool(t *testing.T) {
	seen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.ObservationPoolEntry{{
		RecordID:  "demand:f01",
		Title:     "普通读物第1册",
		Reason:    model.ReasonNotSelected,
		Detail:    "below judging cut-off",
		LastSeen:  seen,
		SeenCount: 3,
	}}

	var buf bytes.Buffer
	formatPool(&buf, entries)

	out := buf.String()
	assert.Contains(t, out, "REASON")
	assert.Contains(t, out, "demand:f01")
	assert.Contains(t, out, "not-selected")
	assert.Contains(t, out, "2026-03-01")
	assert.Contains(t, out, "below judging cut-off")
}

func TestFilterReason(t *testing.T) {
	entries := []model.ObservationPoolEntry{
		{RecordID: "a", Reason: model.ReasonUnmatched},
		{RecordID: "b", Reason: model.ReasonUnusable},
	}

	assert.Len(t, filterReason(entries, ""), 2)

	got := filterReason(entries, model.ReasonUnusable)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].RecordID)
}
