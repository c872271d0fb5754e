package main

import (
	"errors"
	"net/http"

	"github.com/AdamBeresnev/innerdrive/internal/httputil"
	"github.com/AdamBeresnev/innerdrive/internal/race"
)

// respondError maps service errors to the JSON error body. On the sector
// endpoints an unknown race number or code is the caller's input error and
// answers 400 instead of 404.
func respondError(w http.ResponseWriter, msg string, err error, sectorEndpoint bool) {
	var valErr *race.ValidationError
	var seqErr *race.SequenceError

	switch {
	case errors.As(err, &valErr):
		httputil.BadRequest(w, httputil.KindValidation, valErr.Message, nil)

	case errors.Is(err, race.ErrParticipantNotFound), errors.Is(err, race.ErrStationNotFound):
		notFound := race.ErrStationNotFound
		if errors.Is(err, race.ErrParticipantNotFound) {
			notFound = race.ErrParticipantNotFound
		}
		if sectorEndpoint {
			httputil.BadRequest(w, httputil.KindNotFound, notFound.Error(), err)
			return
		}
		httputil.NotFound(w, notFound.Error(), err)

	case errors.Is(err, race.ErrCheckpointNotFound):
		httputil.NotFound(w, err.Error(), nil)

	case errors.As(err, &seqErr):
		httputil.BadRequest(w, httputil.KindSequence, seqErr.Error(), nil)

	case errors.Is(err, race.ErrRaceNotStarted), errors.Is(err, race.ErrRaceFinished):
		httputil.BadRequest(w, httputil.KindState, err.Error(), nil)

	case errors.Is(err, race.ErrBagAlreadyGiven):
		httputil.Conflict(w, err.Error())

	default:
		httputil.InternalServerError(w, msg, err)
	}
}

func invalidBody(w http.ResponseWriter, err error) {
	httputil.BadRequest(w, httputil.KindValidation, "invalid JSON body", err)
}
