package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/stockbetting/internal/auth"
	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/ErlanBelekov/stockbetting/internal/metrics"
	"github.com/ErlanBelekov/stockbetting/internal/repository"
)

// tokenIssuer is the part of auth.TokenService the usecase needs.
type tokenIssuer interface {
	Issue(u domain.User) (auth.Token, error)
}

type AuthUsecase struct {
	users  repository.UserRepository
	tokens tokenIssuer
	// dummyHash is compared against when the user does not exist so unknown
	// usernames cost the same bcrypt work as wrong passwords.
	dummyHash string
}

func NewAuthUsecase(users repository.UserRepository, tokens tokenIssuer) (*AuthUsecase, error) {
	dummy, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthUsecase{users: users, tokens: tokens, dummyHash: dummy}, nil
}

// Login checks the credentials and issues a token. Unknown user and wrong
// password are indistinguishable to the caller.
func (u *AuthUsecase) Login(ctx context.Context, username, password string) (auth.Token, error) {
	user, err := u.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			auth.CheckPassword(u.dummyHash, password)
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			return auth.Token{}, domain.ErrInvalidCredentials
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return auth.Token{}, fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return auth.Token{}, domain.ErrInvalidCredentials
	}

	tok, err := u.tokens.Issue(*user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return auth.Token{}, fmt.Errorf("issue token: %w", err)
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return tok, nil
}

// Register stores a new user with a bcrypt-hashed password.
func (u *AuthUsecase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, &domain.ValidationError{Message: "Username already taken", Err: err}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
