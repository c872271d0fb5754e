package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/db/dbtest"
	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var testCodes = []string{"ALPHA", "BRAVO", "CHARLIE", "DELTA", "ECHO", "FOXTROT"}

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 16, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingNotifier struct {
	mu     sync.Mutex
	events []race.Event
}

func (n *recordingNotifier) Publish(event race.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Types() []race.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]race.EventType, len(n.events))
	for i, e := range n.events {
		types[i] = e.Type
	}
	return types
}

type memoryCache struct {
	rows        map[int][]race.LeaderboardEntry
	gets        int
	invalidated int
	generation  int64

	// beforeSet runs at the start of Set, after the rows were read
	beforeSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{rows: map[int][]race.LeaderboardEntry{}}
}

func (c *memoryCache) Get(_ context.Context, limit int) ([]race.LeaderboardEntry, bool, error) {
	c.gets++
	rows, ok := c.rows[limit]
	return rows, ok, nil
}

func (c *memoryCache) Generation(context.Context) (int64, error) {
	return c.generation, nil
}

func (c *memoryCache) Set(_ context.Context, generation int64, limit int, entries []race.LeaderboardEntry) (bool, error) {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	if generation != c.generation {
		return false, nil
	}
	c.rows[limit] = entries
	return true, nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.invalidated++
	c.generation++
	c.rows = map[int][]race.LeaderboardEntry{}
	return nil
}

type testEnv struct {
	db       *sqlx.DB
	stores   Stores
	clock    *testClock
	notifier *recordingNotifier
	cache    *memoryCache

	sectors      *SectorService
	status       *StatusService
	leaderboard  *LeaderboardService
	desk         *DeskService
	registration *RegistrationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, dbtest.New(t))
}

func newTestEnvWithDB(t *testing.T, database *sqlx.DB) *testEnv {
	t.Helper()

	stores := NewStores(database)
	clock := newTestClock()
	notifier := &recordingNotifier{}
	cache := newMemoryCache()

	_, err := NewStationService(database, stores).Sync(context.Background(), testCodes, nil)
	require.NoError(t, err)

	env := &testEnv{
		db:       database,
		stores:   stores,
		clock:    clock,
		notifier: notifier,
		cache:    cache,
		sectors: NewSectorService(database, stores, SectorOptions{
			SplitTolerance: 10 * time.Second,
			Notifier:       notifier,
			Cache:          cache,
		}),
		status:       NewStatusService(stores),
		leaderboard:  NewLeaderboardService(stores, cache, 3),
		desk:         NewDeskService(database, stores, DeskOptions{AppPoints: 50, MerchPointsPerUnit: 2}),
		registration: NewRegistrationService(database, stores),
	}
	env.sectors.now = clock.Now
	env.leaderboard.now = clock.Now
	env.desk.now = clock.Now
	env.registration.now = clock.Now
	return env
}

func (e *testEnv) register(t *testing.T, name string) *Registration {
	t.Helper()
	reg, err := e.registration.Register(context.Background(), RegisterInput{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
	})
	require.NoError(t, err)
	require.True(t, reg.Created)
	return reg
}

func (e *testEnv) start(t *testing.T, raceNo string, sector int) *SectorStart {
	t.Helper()
	res, err := e.sectors.StartSector(context.Background(), StartSectorInput{RaceNo: raceNo, AccessCode: testCodes[sector-1]})
	require.NoError(t, err)
	return res
}

func (e *testEnv) finish(t *testing.T, raceNo string, sector int, split time.Duration) *SectorFinish {
	t.Helper()
	ms := split.Milliseconds()
	res, err := e.sectors.FinishSector(context.Background(), FinishSectorInput{RaceNo: raceNo, AccessCode: testCodes[sector-1], SplitMs: &ms})
	require.NoError(t, err)
	return res
}

// runRace completes all six sectors, each taking split on the test clock.
func (e *testEnv) runRace(t *testing.T, raceNo string, split time.Duration) *SectorFinish {
	t.Helper()
	var res *SectorFinish
	for sector := 1; sector <= race.SectorCount; sector++ {
		e.start(t, raceNo, sector)
		e.clock.Advance(split)
		res = e.finish(t, raceNo, sector, split)
	}
	return res
}
