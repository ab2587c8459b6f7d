package models

// TickResult summarizes one scheduler pass
type TickResult struct {
	ID        string `json:"id"`
	StartedAt int64  `json:"started_at"`
	Promoted  int    `json:"promoted"`
	Failed    int    `json:"failed"`
	// Skipped is set when another tick was still in flight
	Skipped    bool  `json:"skipped"`
	DurationMs int64 `json:"duration_ms"`
}
