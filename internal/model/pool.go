package model

import "time"

// ReasonCode explains why a record was routed to the observation pool.
type ReasonCode string

const (
	ReasonUnmatched     ReasonCode = "unmatched"
	ReasonNotSelected   ReasonCode = "not-selected"
	ReasonDegraded      ReasonCode = "degraded-judgment"
	ReasonLowConfidence ReasonCode = "low-confidence"
	ReasonUnusable      ReasonCode = "unusable"
)

// ObservationPoolEntry is a record set aside for later review.
type ObservationPoolEntry struct {
	RecordID   string     `json:"record_id"`
	Title      string     `json:"title"`
	Author     string     `json:"author,omitempty"`
	ISBN13     string     `json:"isbn13,omitempty"`
	Reason     ReasonCode `json:"reason"`
	Origin     Source     `json:"origin,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	FinalScore *float64   `json:"final_score,omitempty"`
	Tier       string     `json:"tier,omitempty"`
	RunID      string     `json:"run_id,omitempty"`
	FirstSeen  time.Time  `json:"first_seen"`
	LastSeen   time.Time  `json:"last_seen"`
	SeenCount  int        `json:"seen_count"`
}

// Key identifies an entry within the pool.
func (e ObservationPoolEntry) Key() string {
	return e.RecordID + "|" + string(e.Reason)
}
