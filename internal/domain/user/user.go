package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("user: not found")
	ErrDuplicate         = errors.New("user: username or email already registered")
	ErrInvalidUser       = errors.New("user: invalid user")
	ErrMissingBirthDate  = errors.New("user: birth date is required for age verification")
	ErrUnderage          = errors.New("user: minimum age not reached")
	ErrAgeNotVerified    = errors.New("user: age not verified")
	ErrForbidden         = errors.New("user: forbidden")
	ErrInvalidCredential = errors.New("user: invalid credentials")
)

const DefaultMinimumAge = 18

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	BirthDate    *time.Time
	Roles        []Role
	AgeVerified  bool
	CreatedAt    time.Time
}

type NewUserParams struct {
	Username  string
	Email     string
	Password  string
	BirthDate *time.Time
}

// Validate checks registration fields before the password is hashed.
func (p NewUserParams) Validate() error {
	name := strings.TrimSpace(p.Username)
	if len(name) < 3 || len(name) > 50 {
		return fmt.Errorf("%w: username must be 3 to 50 characters", ErrInvalidUser)
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", ErrInvalidUser)
	}
	if len(p.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidUser)
	}
	return nil
}

func New(id string, p NewUserParams, passwordHash string) *User {
	return &User{
		ID:           id,
		Username:     strings.TrimSpace(p.Username),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		PasswordHash: passwordHash,
		BirthDate:    p.BirthDate,
		Roles:        []Role{RoleCustomer},
		CreatedAt:    time.Now().UTC(),
	}
}

func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]Role(nil), u.Roles...)
	if u.BirthDate != nil {
		b := *u.BirthDate
		clone.BirthDate = &b
	}
	return &clone
}

// Age returns completed years between birth and now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
