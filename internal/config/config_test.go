package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setStations(t *testing.T) {
	t.Setenv("STATION_CODES", "alpha, bravo,charlie,delta,echo,foxtrot")
}

func TestFromEnv_Defaults(t *testing.T) {
	setStations(t)

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite3", c.DBDriver)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}, c.StationCodes)
	assert.Empty(t, c.StationNames)
	assert.Equal(t, 8, c.LeaderboardSize)
	assert.Equal(t, 30*time.Second, c.LeaderboardCacheTTL)
	assert.Equal(t, 12*time.Hour, c.SessionLifetime)
	assert.Equal(t, 50, c.AppPoints)
	assert.Equal(t, 1, c.MerchPointsPerUnit)
	assert.Equal(t, 10*time.Second, c.SplitTolerance)
	assert.False(t, c.AdminEnabled())
	assert.False(t, c.CacheEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	setStations(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://race@localhost/race")
	t.Setenv("LEADERBOARD_SIZE", "12")
	t.Setenv("SPLIT_TOLERANCE", "2s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abc")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, 12, c.LeaderboardSize)
	assert.Equal(t, 2*time.Second, c.SplitTolerance)
	assert.True(t, c.CacheEnabled())
	assert.True(t, c.AdminEnabled())
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing stations", map[string]string{"STATION_CODES": ""}},
		{"too few stations", map[string]string{"STATION_CODES": "A,B,C"}},
		{"duplicate station", map[string]string{"STATION_CODES": "A,B,C,D,E,a"}},
		{"bad driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"bad int", map[string]string{"APP_POINTS": "lots"}},
		{"bad duration", map[string]string{"SPLIT_TOLERANCE": "soon"}},
		{"zero window", map[string]string{"LEADERBOARD_SIZE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setStations(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
