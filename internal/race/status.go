package race

import "time"

type State string

const (
	StateFinished  State = "finished"
	StateStopwatch State = "stopwatch"
	StateEnter     State = "enter"
	StateNotFound  State = "not_found"
)

type Status struct {
	State  State  `json:"status"`
	RaceNo string `json:"race_no,omitempty"`

	// finished
	TotalMs *int64 `json:"total_ms,omitempty"`

	// stopwatch
	ActiveSector int        `json:"active_sector,omitempty"`
	AccessCode   string     `json:"access_code,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`

	// enter
	NextSector int `json:"next_sector,omitempty"`

	CompletedCount int `json:"completed_count"`
}
