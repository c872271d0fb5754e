package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/innerdrive/internal/httputil"
	"github.com/AdamBeresnev/innerdrive/internal/middleware"
	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/service"
)

type okResponse struct {
	Status string `json:"status"`
}

type raceRequest struct {
	RaceNo string `json:"race_no"`
	Bib    int    `json:"bib"`
}

// readRaceRequest takes race_no and bib from the query string on GET and
// from the JSON body otherwise.
func readRaceRequest(r *http.Request) (raceRequest, error) {
	var req raceRequest
	if r.Method == http.MethodGet {
		req.RaceNo = r.URL.Query().Get("race_no")
		if raw := strings.TrimSpace(r.URL.Query().Get("bib")); raw != "" {
			bib, err := strconv.Atoi(raw)
			if err != nil {
				return req, race.NewValidationError("bib", "bib must be a number")
			}
			req.Bib = bib
		}
		return req, nil
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return req, race.NewValidationError("body", "invalid JSON body")
	}
	return req, nil
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"live_clients": app.hub.ClientCount(),
	})
}

func (app *application) raceStatus(w http.ResponseWriter, r *http.Request) {
	req, err := readRaceRequest(r)
	if err != nil {
		respondError(w, "failed to read race status request", err, false)
		return
	}
	status, err := app.status.ResolveStatus(r.Context(), req.RaceNo, req.Bib)
	if err != nil {
		respondError(w, "failed to resolve race status", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, status)
}

func (app *application) startSector(w http.ResponseWriter, r *http.Request) {
	var in service.StartSectorInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		invalidBody(w, err)
		return
	}
	res, err := app.sectors.StartSector(r.Context(), in)
	if err != nil {
		respondError(w, "failed to start sector", err, true)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) finishSector(w http.ResponseWriter, r *http.Request) {
	var in service.FinishSectorInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		invalidBody(w, err)
		return
	}
	res, err := app.sectors.FinishSector(r.Context(), in)
	if err != nil {
		respondError(w, "failed to finish sector", err, true)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) saveSplit(w http.ResponseWriter, r *http.Request) {
	var in service.SaveSplitInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		invalidBody(w, err)
		return
	}
	res, err := app.sectors.SaveSplit(r.Context(), in)
	if err != nil {
		respondError(w, "failed to save split", err, true)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) checkRace(w http.ResponseWriter, r *http.Request) {
	raceNo := r.URL.Query().Get("race_no")
	exists, err := app.status.CheckRace(r.Context(), raceNo)
	if err != nil {
		respondError(w, "failed to check race number", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"status": "ok", "exists": exists})
}

func (app *application) playerInfo(w http.ResponseWriter, r *http.Request) {
	p, err := app.status.PlayerInfo(r.Context(), r.URL.Query().Get("race_no"))
	if err != nil {
		respondError(w, "failed to get player info", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"status": "ok", "player": p})
}

func (app *application) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := app.leaderboard.Get(r.Context(), r.URL.Query().Get("race_no"))
	if err != nil {
		respondError(w, "failed to get leaderboard", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, board)
}

func (app *application) bagStatus(w http.ResponseWriter, r *http.Request) {
	status, err := app.desk.BagStatus(r.Context(), r.URL.Query().Get("race_no"))
	if err != nil {
		respondError(w, "failed to get bag status", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, status)
}

func (app *application) markBagGiven(w http.ResponseWriter, r *http.Request) {
	var req raceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}
	status, err := app.desk.MarkBagGiven(r.Context(), req.RaceNo)
	if err != nil {
		respondError(w, "failed to mark bag given", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, status)
}

func (app *application) merchPurchase(w http.ResponseWriter, r *http.Request) {
	var in service.PurchaseInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		invalidBody(w, err)
		return
	}
	res, err := app.desk.RecordPurchase(r.Context(), in)
	if err != nil {
		respondError(w, "failed to record purchase", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) updateAppPoints(w http.ResponseWriter, r *http.Request) {
	var req raceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}
	res, err := app.desk.AwardAppPoints(r.Context(), req.RaceNo)
	if err != nil {
		respondError(w, "failed to award app points", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) updatePoints(w http.ResponseWriter, r *http.Request) {
	var in service.AddPointsInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		invalidBody(w, err)
		return
	}
	res, err := app.desk.AddPoints(r.Context(), in)
	if err != nil {
		respondError(w, "failed to update points", err, false)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) register(source race.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterInput
		if err := httputil.DecodeJSON(r, &in); err != nil {
			invalidBody(w, err)
			return
		}
		in.Source = source

		reg, err := app.registration.Register(r.Context(), in)
		if err != nil {
			respondError(w, "failed to register participant", err, false)
			return
		}
		status := http.StatusOK
		if reg.Created {
			status = http.StatusCreated
		}
		httputil.JSON(w, status, reg)
	}
}

func (app *application) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}
	if !app.cfg.AdminEnabled() {
		httputil.Error(w, http.StatusForbidden, httputil.KindForbidden, "admin login is disabled")
		return
	}
	if !middleware.CheckAdminPassword(app.cfg.AdminPasswordHash, req.Password) {
		httputil.Error(w, http.StatusUnauthorized, httputil.KindUnauthorized, "invalid password")
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.AdminSessionKey, true)
	httputil.JSON(w, http.StatusOK, okResponse{Status: "ok"})
}

func (app *application) adminLogout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "failed to end session", err)
		return
	}
	httputil.JSON(w, http.StatusOK, okResponse{Status: "ok"})
}
