package user

import "context"

type Repository interface {
	// Insert fails with ErrDuplicate when the username or email is taken.
	Insert(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	// FindByLogin matches either the username or the email.
	FindByLogin(ctx context.Context, login string) (*User, error)
	SetAgeVerified(ctx context.Context, id string, verified bool) error
}
