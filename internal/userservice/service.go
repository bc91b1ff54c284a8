// Package userservice manages business logic layer of users.
package userservice

import (
	"context"
	"net/mail"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, username string) (domain.User, error)
	SetKYCVerified(ctx context.Context, username string, verified bool) (domain.User, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo Repo
}

// New return user service struct to manage user bussines logic.
func New(ur Repo) *Service {
	return &Service{
		repo: ur,
	}
}

// Create creates and returns user. New users start in the unverified tier.
func (s *Service) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	if arg.Username == "" {
		return domain.User{}, domain.ErrInvalidUsername
	}

	if _, err := mail.ParseAddress(arg.Email); err != nil {
		l.Info().Err(err).Send()
		return domain.User{}, domain.ErrInvalidEmail
	}

	return s.repo.Create(ctx, arg)
}

// Get returns the user.
func (s *Service) Get(ctx context.Context, username string) (domain.User, error) {
	return s.repo.Get(ctx, username)
}

// SetKYCVerified moves the user between withdrawal limit tiers.
func (s *Service) SetKYCVerified(ctx context.Context, username string, verified bool) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	u, err := s.repo.SetKYCVerified(ctx, username, verified)
	if err != nil {
		return u, err
	}

	l.Info().Str("username", username).Bool("kyc_verified", verified).Msg("user tier changed")

	return u, nil
}
