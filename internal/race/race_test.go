package race

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRaceNo(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		bib      int
	}{
		{name: "canonical", input: "F00012", expected: "F00012", bib: 12},
		{name: "lower case and spaces", input: "  f00012 ", expected: "F00012", bib: 12},
		{name: "short form", input: "F7", expected: "F00007", bib: 7},
		{name: "long bib", input: "F123456", expected: "F123456", bib: 123456},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raceNo, bib, err := ParseRaceNo(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, raceNo)
			assert.Equal(t, tc.bib, bib)
		})
	}
}

func TestParseRaceNo_Invalid(t *testing.T) {
	for _, input := range []string{"", "F", "12345", "G00012", "F00000", "F12a"} {
		_, _, err := ParseRaceNo(input)
		assert.True(t, errors.Is(err, ErrParticipantNotFound), "input %q", input)
	}
}

func TestSummarizeProgress(t *testing.T) {
	done := time.Now()

	progress := SummarizeProgress([]SectorCheckpoint{
		{Checkpoint: Checkpoint{CompletedAt: &done}, OrderIndex: 1},
		{Checkpoint: Checkpoint{CompletedAt: &done}, OrderIndex: 2},
		{Checkpoint: Checkpoint{}, OrderIndex: 3},
	})

	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 2, progress.LastCompleted)
	require.NotNil(t, progress.Active)
	assert.Equal(t, 3, progress.Active.OrderIndex)
	assert.Equal(t, 3, progress.ExpectedSector())

	empty := SummarizeProgress(nil)
	assert.Nil(t, empty.Active)
	assert.Equal(t, 1, empty.ExpectedSector())
}

func TestSequenceErrorMessages(t *testing.T) {
	assert.Equal(t, "finish sector 1 first", (&SequenceError{Kind: SequenceOutOfOrder, Sector: 1}).Error())
	assert.Equal(t, "finish sector 4 first", (&SequenceError{Kind: SequenceActiveElsewhere, Sector: 4}).Error())
	assert.Equal(t, "already completed sector 2; continue with next sector",
		(&SequenceError{Kind: SequenceAlreadyCompleted, Sector: 2}).Error())
	assert.Equal(t, "sector 1 already started", (&SequenceError{Kind: SequenceAlreadyStarted, Sector: 1}).Error())
}

func TestValidate(t *testing.T) {
	type input struct {
		RaceNo string `json:"race_no" validate:"required"`
		Split  int64  `json:"split_ms" validate:"gte=0"`
		Email  string `json:"email" validate:"omitempty,email"`
	}

	require.NoError(t, Validate(input{RaceNo: "F00001"}))

	err := Validate(input{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "race_no", vErr.Field)
	assert.Equal(t, "race_no is required", vErr.Message)

	err = Validate(input{RaceNo: "F00001", Split: -1})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "split_ms must be at least 0", vErr.Message)

	err = Validate(input{RaceNo: "F00001", Email: "nope"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
}
