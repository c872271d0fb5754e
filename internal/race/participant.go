package race

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const RaceNoPrefix = "F"

type Source string

const (
	SourceDefault Source = "default"
	SourceGenesis Source = "genesis"
	SourceProxy   Source = "proxy"
)

type Participant struct {
	ID          uuid.UUID `db:"id" json:"-"`
	RaceNo      string    `db:"race_no" json:"race_no"`
	Bib         int       `db:"bib" json:"bib"`
	Name        string    `db:"name" json:"name"`
	Email       *string   `db:"email" json:"-"`
	Phone       *string   `db:"phone" json:"-"`
	Nationality *string   `db:"nationality" json:"nationality,omitempty"`
	Source      Source    `db:"source" json:"-"`

	// Race clock
	StartedAt      *time.Time `db:"started_at" json:"started_at,omitempty"`
	FinishedAt     *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	TotalMs        *int64     `db:"total_ms" json:"total_ms,omitempty"`
	CompletedCount int        `db:"completed_count" json:"completed_count"`

	// Desk badges
	Points     int        `db:"points" json:"points"`
	HasMerch   bool       `db:"has_merch" json:"has_merch"`
	HasApp     bool       `db:"has_app" json:"has_app"`
	BagGiven   bool       `db:"bag_given" json:"bag_given"`
	BagGivenAt *time.Time `db:"bag_given_at" json:"bag_given_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"-"`
}

func (p *Participant) HasStarted() bool {
	return p.StartedAt != nil
}

func (p *Participant) HasFinished() bool {
	return p.FinishedAt != nil
}

var raceNoPattern = regexp.MustCompile(`^F0*([1-9][0-9]{0,8})$`)

// FormatRaceNo builds the public race number for a bib, e.g. 12 -> F00012.
func FormatRaceNo(bib int) string {
	return fmt.Sprintf("%s%05d", RaceNoPrefix, bib)
}

// ParseRaceNo accepts loosely typed race numbers ("f12", " F00012 ") and
// returns the canonical race number together with its bib.
func ParseRaceNo(raw string) (string, int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	m := raceNoPattern.FindStringSubmatch(s)
	if m == nil {
		return "", 0, fmt.Errorf("%w: %q", ErrParticipantNotFound, raw)
	}
	bib, err := strconv.Atoi(m[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrParticipantNotFound, raw)
	}
	return FormatRaceNo(bib), bib, nil
}
