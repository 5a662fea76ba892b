// Package users contains the persistence layer for models.User.
package users

import (
	"context"

	"github.com/dmitrijs2005/scorekeeper/internal/server/models"
)

// Repository persists users and answers the ranking queries.
//
// Implementations return common.ErrorNotFound for unknown users and
// common.ErrorAlreadyExists when an email is already registered. Store
// failures are wrapped as "db error: ...".
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// IncrementScore adds one to the user's score atomically and returns
	// the updated user.
	IncrementScore(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// TopScores returns at most limit users ordered by score, highest first.
	TopScores(ctx context.Context, limit int) ([]*models.User, error)
}
