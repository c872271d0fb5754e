package main

import (
	"net/http"

	"github.com/AdamBeresnev/innerdrive/internal/config"
	"github.com/AdamBeresnev/innerdrive/internal/live"
	"github.com/AdamBeresnev/innerdrive/internal/middleware"
	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/service"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
)

type application struct {
	cfg            config.Config
	sessionManager *scs.SessionManager
	hub            *live.Hub

	sectors      *service.SectorService
	status       *service.StatusService
	leaderboard  *service.LeaderboardService
	desk         *service.DeskService
	registration *service.RegistrationService
}

func newApplication(cfg config.Config, database *sqlx.DB, stores service.Stores, hub *live.Hub, cache service.LeaderboardCache, sessionManager *scs.SessionManager) *application {
	return &application{
		cfg:            cfg,
		sessionManager: sessionManager,
		hub:            hub,
		sectors: service.NewSectorService(database, stores, service.SectorOptions{
			SplitTolerance: cfg.SplitTolerance,
			Notifier:       hub,
			Cache:          cache,
		}),
		status:      service.NewStatusService(stores),
		leaderboard: service.NewLeaderboardService(stores, cache, cfg.LeaderboardSize),
		desk: service.NewDeskService(database, stores, service.DeskOptions{
			AppPoints:          cfg.AppPoints,
			MerchPointsPerUnit: cfg.MerchPointsPerUnit,
		}),
		registration: service.NewRegistrationService(database, stores),
	}
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", app.health)

	// The websocket is hijacked, keep it out of the session middleware
	r.Get("/leaderboard/live", app.hub.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)

		// Participant app
		r.Get("/race-status", app.raceStatus)
		r.Post("/race-status", app.raceStatus)
		r.Post("/footershell-race-check", app.startSector)
		r.Post("/finish-sector", app.finishSector)
		r.Post("/save-split", app.saveSplit)
		r.Get("/check-race", app.checkRace)
		r.Get("/player-info", app.playerInfo)
		r.Get("/leaderboard", app.getLeaderboard)
		r.Get("/bag-status", app.bagStatus)
		r.Post("/update-app-points", app.updateAppPoints)

		r.Post("/pre-register", app.register(race.SourceDefault))
		r.Post("/genesis-pre-register", app.register(race.SourceGenesis))
		r.With(middleware.RequireProxyKey(app.cfg.ProxyAPIKey)).
			Post("/proxy-pre-register", app.register(race.SourceProxy))

		r.Post("/admin/login", app.adminLogin)
		r.Post("/admin/logout", app.adminLogout)

		// Race office desk
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(app.sessionManager))

			r.Post("/bag-status", app.markBagGiven)
			r.Post("/merch-purchase", app.merchPurchase)
			r.Post("/update-points", app.updatePoints)
		})
	})

	return r
}
