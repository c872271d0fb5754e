package race

type EventType string

const (
	EventSectorStarted  EventType = "sector_started"
	EventSectorFinished EventType = "sector_finished"
	EventRaceFinished   EventType = "race_finished"
)

// Event is pushed to leaderboard screens when a participant's progress
// changes.
type Event struct {
	Type    EventType `json:"type"`
	RaceNo  string    `json:"race_no"`
	Name    string    `json:"name,omitempty"`
	Sector  int       `json:"sector,omitempty"`
	TotalMs *int64    `json:"total_ms,omitempty"`
}
