package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swagportal/entity"
	"swagportal/internal/database"
)

type users map[string]*entity.User

func (u users) UserByID(_ context.Context, id string) (*entity.User, error) {
	if id == "broken" {
		return nil, errors.New("connection reset")
	}
	user, ok := u[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (u users) UserByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range u {
		if user.Email == entity.NormalizeEmail(email) {
			return user, nil
		}
	}
	return nil, database.ErrNotFound
}

func newGate() *Gate {
	db := users{
		"invited":  {Id: "invited", Email: "new.hire@acme.com", Invited: true},
		"ordered":  {Id: "ordered", Email: "done@acme.com", Invited: true, OrderSubmitted: true},
		"stranger": {Id: "stranger", Email: "guest@acme.com"},
		// already ordered wins over not invited
		"both": {Id: "both", Email: "both@acme.com", OrderSubmitted: true},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, []string{"acme.com", " @Partner.io "}, []string{"Friend@Gmail.com"}, log)
}

func TestCheckEligibility(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	tests := []struct {
		user   string
		ok     bool
		reason entity.IneligibleReason
	}{
		{"invited", true, entity.ReasonNone},
		{"ordered", false, entity.ReasonAlreadyOrdered},
		{"stranger", false, entity.ReasonNotInvited},
		{"both", false, entity.ReasonAlreadyOrdered},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got, err := g.CheckEligibility(ctx, tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, got.Eligible)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestCheckEligibilityIsRepeatable(t *testing.T) {
	g := newGate()
	for i := 0; i < 3; i++ {
		got, err := g.CheckEligibility(context.Background(), "ordered")
		require.NoError(t, err)
		assert.Equal(t, entity.ReasonAlreadyOrdered, got.Reason)
	}
}

func TestCheckEligibilityErrors(t *testing.T) {
	g := newGate()

	got, err := g.CheckEligibility(context.Background(), "nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.Equal(t, entity.ReasonUserNotFound, got.Reason)

	_, err = g.CheckEligibility(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, database.ErrNotFound)
}

func TestAllowedEmail(t *testing.T) {
	g := newGate()
	assert.True(t, g.AllowedEmail("someone@ACME.com"))
	assert.True(t, g.AllowedEmail("a@partner.io"))
	assert.True(t, g.AllowedEmail(" friend@gmail.com "))
	assert.False(t, g.AllowedEmail("other@gmail.com"))
	assert.False(t, g.AllowedEmail("x@notacme.com.evil"))
	assert.False(t, g.AllowedEmail(""))
}

func TestCheckEmail(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	got, err := g.CheckEmail(ctx, "other@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonNotAllowed, got.Reason)

	got, err = g.CheckEmail(ctx, "unknown@acme.com")
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonUserNotFound, got.Reason)

	got, err = g.CheckEmail(ctx, "New.Hire@acme.com")
	require.NoError(t, err)
	assert.True(t, got.Eligible)
	assert.Equal(t, "invited", got.User.Id)
}
