package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserStore is the identity store. Users are never deleted.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIdentifier(ctx context.Context, emailOrPhone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetOTP(ctx context.Context, id primitive.ObjectID, code string, expiresAt time.Time) error
	// ConsumeOTP clears the pending code and marks the user verified, but only
	// while the stored code still equals code. ErrNotFound otherwise.
	ConsumeOTP(ctx context.Context, id primitive.ObjectID, code string) error
}

type ProductStore interface {
	Insert(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// ListByOwner returns newest first. A nil published matches both states.
	ListByOwner(ctx context.Context, owner primitive.ObjectID, published *bool) ([]models.Product, error)
	Replace(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
