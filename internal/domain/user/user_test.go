package user_test

import (
	"testing"
	"time"

	"github.com/escabi/escabiapi/internal/domain/user"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestAge(t *testing.T) {
	now := date(2026, time.March, 10)
	tests := []struct {
		name  string
		birth time.Time
		want  int
	}{
		{"birthday today", date(2008, time.March, 10), 18},
		{"birthday tomorrow", date(2008, time.March, 11), 17},
		{"earlier month", date(2000, time.January, 1), 26},
		{"later month", date(2000, time.December, 1), 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, user.Age(tt.birth, now))
		})
	}
}

func TestValidate(t *testing.T) {
	ok := user.NewUserParams{Username: "alice", Email: "alice@example.com", Password: "s3cretpass"}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Username = "al"
	assert.ErrorIs(t, bad.Validate(), user.ErrInvalidUser)

	bad = ok
	bad.Email = "nope"
	assert.ErrorIs(t, bad.Validate(), user.ErrInvalidUser)

	bad = ok
	bad.Password = "short"
	assert.ErrorIs(t, bad.Validate(), user.ErrInvalidUser)
}

func TestIdentityCanRead(t *testing.T) {
	customer := user.Identity{UserID: "u1", Roles: []user.Role{user.RoleCustomer}}
	admin := user.Identity{UserID: "a1", Roles: []user.Role{user.RoleAdmin}}

	assert.True(t, customer.CanRead("u1"))
	assert.False(t, customer.CanRead("u2"))
	assert.True(t, admin.CanRead("u2"))
}
