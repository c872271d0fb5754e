package race

import (
	"time"

	"github.com/google/uuid"
)

type Checkpoint struct {
	ID            uuid.UUID  `db:"id"`
	ParticipantID uuid.UUID  `db:"participant_id"`
	StationID     uuid.UUID  `db:"station_id"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	SplitMs       *int64     `db:"split_ms"`
	SplitFlagged  bool       `db:"split_flagged"`
}

func (c *Checkpoint) IsActive() bool {
	return c.CompletedAt == nil
}

// SectorCheckpoint is a checkpoint joined with the station it was recorded at.
type SectorCheckpoint struct {
	Checkpoint
	OrderIndex int    `db:"order_index"`
	AccessCode string `db:"access_code"`
}

// Progress summarises a participant's checkpoints.
type Progress struct {
	Completed     int
	LastCompleted int
	Active        *SectorCheckpoint
}

func SummarizeProgress(checkpoints []SectorCheckpoint) Progress {
	var p Progress
	for i := range checkpoints {
		cp := &checkpoints[i]
		if cp.IsActive() {
			p.Active = cp
			continue
		}
		p.Completed++
		if cp.OrderIndex > p.LastCompleted {
			p.LastCompleted = cp.OrderIndex
		}
	}
	return p
}

// ExpectedSector is the only sector a participant may start next.
func (p Progress) ExpectedSector() int {
	return p.Completed + 1
}

// ParticipantTimes mirrors a row of the participant_times view.
type ParticipantTimes struct {
	ParticipantID  uuid.UUID `db:"participant_id"`
	RaceNo         string    `db:"race_no"`
	TotalMs        *int64    `db:"total_ms"`
	CompletedCount int       `db:"completed_count"`
	SplitSumMs     int64     `db:"split_sum_ms"`
}
