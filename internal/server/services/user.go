// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, bearer token checks and
// the score operations.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/scorekeeper/internal/common"
	"github.com/dmitrijs2005/scorekeeper/internal/server/auth"
	"github.com/dmitrijs2005/scorekeeper/internal/server/config"
	"github.com/dmitrijs2005/scorekeeper/internal/server/models"
	"github.com/dmitrijs2005/scorekeeper/internal/server/repositories/users"
)

// UserService provides the user operations:
// - Register: create users and mint their first token
// - Login: verify credentials and mint a token
// - Authenticate: resolve a bearer token to a user id
// - IncrementScore / TopScores / ListUsers: the scoreboard
type UserService struct {
	repo                        users.Repository
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	leaderboardSize             int
}

// NewUserService constructs a UserService using the users repository and
// server config.
func NewUserService(repo users.Repository, cfg *config.Config) *UserService {
	size := cfg.LeaderboardSize
	if size <= 0 {
		size = common.DefaultLeaderboardSize
	}
	return &UserService{
		repo:                        repo,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		leaderboardSize:             size,
	}
}

// Register creates a user with a zero score and returns it with a token
// for the new id.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", common.ErrorValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.generateAccessToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies the password against the stored hash and, on success,
// returns the user with a new token. Unknown email and wrong password both
// yield ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", common.ErrorInvalidCredentials
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorInvalidCredentials
		}
		return nil, "", fmt.Errorf("error searching user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", common.ErrorInvalidCredentials
	}

	token, err := s.generateAccessToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate returns the user id carried by a valid token.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// IncrementScore adds one point to the user's score.
func (s *UserService) IncrementScore(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repo.IncrementScore(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error incrementing score: %w", err)
	}
	return u, nil
}

// TopScores returns the leaderboard, highest score first.
func (s *UserService) TopScores(ctx context.Context) ([]*models.User, error) {
	list, err := s.repo.TopScores(ctx, s.leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("error reading leaderboard: %w", err)
	}
	return list, nil
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return token, nil
}
