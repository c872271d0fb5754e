package race

type LeaderboardEntry struct {
	Rank           int     `db:"rank" json:"rank"`
	RaceNo         string  `db:"race_no" json:"race_no"`
	Bib            int     `db:"bib" json:"bib"`
	Name           string  `db:"name" json:"name"`
	Nationality    *string `db:"nationality" json:"nationality,omitempty"`
	TotalMs        int64   `db:"total_ms" json:"total_ms"`
	CompletedCount int     `db:"completed_count" json:"completed_count"`

	// Set only on the merged entry of the participant asking for the board.
	IsCurrent bool `db:"-" json:"is_current,omitempty"`
	Live      bool `db:"-" json:"live,omitempty"`
}
