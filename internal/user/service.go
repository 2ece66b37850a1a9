package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateUser(ctx context.Context, in CreateInput) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	// Login resolves a user by name.
	Login(ctx context.Context, name string) (*User, error)
	// HasUsers reports whether at least one user exists.
	HasUsers(ctx context.Context) (bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateUser(ctx context.Context, in CreateInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, in)
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			log.Warn().Str("name", in.Name).Msg("service: user name already taken")
			return nil, ErrNameTaken
		}
		log.Error().Err(err).Str("name", in.Name).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}

	log.Info().Int64("user_id", u.ID).Str("name", u.Name).Stringer("role", u.Role).Msg("service: user created")
	return u, nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users in repository")
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	return users, nil
}

func (s *service) Login(ctx context.Context, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrUserNotFound
	}

	u, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Str("name", name).Msg("service: failed to get user by name in repository")
		return nil, fmt.Errorf("service: failed to get user by name '%s': %w", name, err)
	}
	return u, nil
}

func (s *service) HasUsers(ctx context.Context) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("service: failed to count users: %w", err)
	}
	return n > 0, nil
}
