package race

import (
	"strings"

	"github.com/google/uuid"
)

// SectorCount is the number of sectors a participant must complete, in
// ascending order_index, to finish the race.
const SectorCount = 6

type Station struct {
	ID         uuid.UUID `db:"id" json:"-"`
	OrderIndex int       `db:"order_index" json:"order_index"`
	Name       string    `db:"name" json:"name"`
	AccessCode string    `db:"access_code" json:"-"`
}

func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
