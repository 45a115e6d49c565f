package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/escabi/escabiapi/internal/application"
	appaudit "github.com/escabi/escabiapi/internal/application/audit"
	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/observability"
)

var (
	ErrValidation      = errors.New("auth: validation failed")
	ErrRateLimited     = errors.New("auth: too many login attempts")
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	ErrDuplicate       = domuser.ErrDuplicate
	ErrUnderage        = domuser.ErrUnderage
	ErrMissingBirth    = domuser.ErrMissingBirthDate
)

const TokenType = "bearer"

type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type Config struct {
	MinimumAge int
}

type Service struct {
	users   domuser.Repository
	hasher  PasswordHasher
	tokens  TokenIssuer
	limiter RateLimiter
	ids     IDGenerator
	audit   *appaudit.Recorder
	cfg     Config
	in      application.Instrumentation
	now     func() time.Time
}

func NewService(
	users domuser.Repository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	limiter RateLimiter,
	ids IDGenerator,
	recorder *appaudit.Recorder,
	cfg Config,
	in application.Instrumentation,
) *Service {
	if cfg.MinimumAge <= 0 {
		cfg.MinimumAge = domuser.DefaultMinimumAge
	}
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		ids:     ids,
		audit:   recorder,
		cfg:     cfg,
		in:      in,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// MinimumAge is the legal drinking age enforced by VerifyAge.
func (s *Service) MinimumAge() int { return s.cfg.MinimumAge }

func (s *Service) Register(ctx context.Context, p domuser.NewUserParams) (_ *domuser.User, err error) {
	ctx, iv := s.in.Begin(ctx, "auth.register", "Register")
	defer func() { iv.End(ctx, err) }()

	if verr := p.Validate(); verr != nil {
		iv.Fail("USER_INVALID")
		return nil, fmt.Errorf("%w: %w", ErrValidation, verr)
	}
	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		iv.Fail("HASH_FAILED")
		return nil, err
	}
	u := domuser.New(s.ids.NewID(), p, hash)
	if err = s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, domuser.ErrDuplicate) {
			iv.Fail("USER_DUPLICATE")
		} else {
			iv.Fail("REPO_INSERT_FAILED")
		}
		return nil, err
	}
	iv.Field("user_id", u.ID)

	s.audit.Record(ctx, domaudit.UserRegistered, u.ID, map[string]any{
		"username": u.Username,
		"email":    u.Email,
	})
	return u, nil
}

type LoginInput struct {
	Login    string
	Password string
	ClientIP string
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, in LoginInput) (_ *Token, err error) {
	ctx, iv := s.in.Begin(ctx, "auth.login", "Login")
	defer func() { iv.End(ctx, err) }()

	if s.limiter != nil {
		allowed, lerr := s.limiter.Allow(ctx, "login:"+in.ClientIP)
		switch {
		case lerr != nil:
			iv.Logger().Warn("rate_limiter_unavailable", observability.F("error", lerr.Error()))
		case !allowed:
			iv.Fail("RATE_LIMITED")
			return nil, ErrRateLimited
		}
	}

	u, err := s.users.FindByLogin(ctx, in.Login)
	if err == nil {
		err = s.hasher.Compare(u.PasswordHash, in.Password)
	}
	if err != nil {
		iv.Fail("CREDENTIALS_INVALID")
		s.audit.Record(ctx, domaudit.UserLoginFailed, "", map[string]any{"login": in.Login})
		if errors.Is(err, domuser.ErrNotFound) || errors.Is(err, domuser.ErrInvalidCredential) {
			return nil, domuser.ErrInvalidCredential
		}
		return nil, err
	}

	tok, err := s.issue(u)
	if err != nil {
		iv.Fail("TOKEN_ISSUE_FAILED")
		return nil, err
	}
	iv.Field("user_id", u.ID)
	s.audit.Record(ctx, domaudit.UserLoginSuccess, u.ID, map[string]any{"username": u.Username})
	return tok, nil
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, caller domuser.Identity) (_ *domuser.User, err error) {
	ctx, iv := s.in.Begin(ctx, "auth.me", "Me")
	defer func() { iv.End(ctx, err) }()

	u, err := s.users.Get(ctx, caller.UserID)
	if err != nil {
		iv.Fail("USER_LOOKUP_FAILED")
		if errors.Is(err, domuser.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}

type VerifyAgeResult struct {
	User  *domuser.User
	Age   int
	Token *Token
}

// VerifyAge recomputes the caller's age and stores the outcome. A fresh token
// carrying the verified flag is returned on success.
func (s *Service) VerifyAge(ctx context.Context, caller domuser.Identity) (_ *VerifyAgeResult, err error) {
	ctx, iv := s.in.Begin(ctx, "auth.verify_age", "VerifyAge")
	defer func() { iv.End(ctx, err) }()

	u, err := s.users.Get(ctx, caller.UserID)
	if err != nil {
		iv.Fail("USER_LOOKUP_FAILED")
		if errors.Is(err, domuser.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if u.BirthDate == nil {
		iv.Fail("BIRTH_DATE_MISSING")
		return nil, fmt.Errorf("%w: %w", ErrValidation, domuser.ErrMissingBirthDate)
	}

	age := domuser.Age(*u.BirthDate, s.now())
	iv.Field("age", age)
	verified := age >= s.cfg.MinimumAge
	if err = s.users.SetAgeVerified(ctx, u.ID, verified); err != nil {
		iv.Fail("REPO_UPDATE_FAILED")
		return nil, err
	}
	u.AgeVerified = verified
	if !verified {
		iv.Fail("UNDERAGE")
		return nil, fmt.Errorf("%w: must be at least %d", domuser.ErrUnderage, s.cfg.MinimumAge)
	}

	tok, err := s.issue(u)
	if err != nil {
		iv.Fail("TOKEN_ISSUE_FAILED")
		return nil, err
	}
	return &VerifyAgeResult{User: u, Age: age, Token: tok}, nil
}

func (s *Service) issue(u *domuser.User) (*Token, error) {
	access, exp, err := s.tokens.Issue(domuser.IdentityOf(u))
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: access, TokenType: TokenType, ExpiresAt: exp}, nil
}
