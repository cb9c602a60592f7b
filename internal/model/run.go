package model

import "time"

// RunStatus represents the current state of a scoring run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunStats summarizes one batch.
type RunStats struct {
	SupplyIn     int            `json:"supply_in"`
	DemandIn     int            `json:"demand_in"`
	Unusable     int            `json:"unusable"`
	Matched      int            `json:"matched"`
	MatchedISBN  int            `json:"matched_isbn"`
	SupplyOnly   int            `json:"supply_only"`
	DemandOnly   int            `json:"demand_only"`
	Scored       int            `json:"scored"`
	Judged       int            `json:"judged"`
	Degraded     int            `json:"degraded"`
	PoolSize     int            `json:"pool_size"`
	Tiers        map[string]int `json:"tiers"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	JudgeCostUSD float64        `json:"judge_cost_usd"`
}

// Run is one recorded execution of the pipeline.
type Run struct {
	ID           string     `json:"id"`
	Status       RunStatus  `json:"status"`
	JudgeBackend string     `json:"judge_backend"`
	Stats        RunStats   `json:"stats"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// RunFilter filters run listings.
type RunFilter struct {
	Status RunStatus
	Limit  int
	Offset int
}
