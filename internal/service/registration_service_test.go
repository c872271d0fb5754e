package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_AllocatesSequentialRaceNumbers(t *testing.T) {
	env := newTestEnv(t)

	first := env.register(t, "ada")
	second := env.register(t, "grace")

	assert.Equal(t, "F00001", first.RaceNo)
	assert.Equal(t, 1, first.Bib)
	assert.Equal(t, "F00002", second.RaceNo)
	assert.Equal(t, 2, second.Bib)
}

func TestRegister_Dedupes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	original, err := env.registration.Register(ctx, RegisterInput{
		Name:  "Ada Lovelace",
		Email: " Ada@Example.com ",
		Phone: "+44 7700 900123",
	})
	require.NoError(t, err)
	require.True(t, original.Created)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"same email other case", RegisterInput{Name: "Ada", Email: "ADA@example.COM"}},
		{"same phone other format", RegisterInput{Name: "Ada", Phone: "0044-7700-900123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := env.registration.Register(ctx, tt.in)
			require.NoError(t, err)
			assert.False(t, reg.Created)
			assert.Equal(t, original.RaceNo, reg.RaceNo)
			assert.Equal(t, "Ada Lovelace", reg.Name)
		})
	}

	p, err := env.stores.Participants.GetByRaceNo(ctx, original.RaceNo)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", utils.OrZero(p.Email))
	assert.Equal(t, "447700900123", utils.OrZero(p.Phone))
	assert.Equal(t, race.SourceDefault, p.Source)
}

func TestRegister_Source(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.registration.Register(ctx, RegisterInput{Name: "Gen", Phone: "0612345678", Source: race.SourceGenesis})
	require.NoError(t, err)

	p, err := env.stores.Participants.GetByRaceNo(ctx, reg.RaceNo)
	require.NoError(t, err)
	assert.Equal(t, race.SourceGenesis, p.Source)
	assert.Nil(t, p.Email)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing name", RegisterInput{Name: "  ", Email: "a@example.com"}, "name"},
		{"no contact", RegisterInput{Name: "Ada"}, "email"},
		{"bad email", RegisterInput{Name: "Ada", Email: "not-an-email"}, "email"},
		{"phone without digits", RegisterInput{Name: "Ada", Phone: "call me"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.registration.Register(ctx, tt.in)
			var valErr *race.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}
