package services

import (
	"context"
	"errors"

	"biodata-platform/models"
)

var (
	ErrBiodataNotFound    = errors.New("biodata not found")
	ErrBiodataExists      = errors.New("biodata already exists for this user")
	ErrNotBiodataOwner    = errors.New("biodata belongs to another user")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyInFavorites = errors.New("already in favorites")
	ErrAlreadyIgnored     = errors.New("already in ignore list")
	ErrResyncLoad         = errors.New("failed to load biodata for resync")
)

// BiodataStore is the canonical profile collection.
type BiodataStore interface {
	Insert(ctx context.Context, b *models.Biodata) error
	InsertMany(ctx context.Context, bs []models.Biodata) error
	// Update sets the non-empty fields of patch, removes the unset fields and
	// returns the stored document after the change.
	Update(ctx context.Context, id string, patch models.Biodata, unset []string) (*models.Biodata, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Biodata, error)
	GetByUserID(ctx context.Context, userID string) (*models.Biodata, error)
	All(ctx context.Context) ([]models.Biodata, error)
	// Count counts profiles of a biodata type; "" counts every profile.
	Count(ctx context.Context, biodataType string) (int64, error)
	CountTestData(ctx context.Context) (int64, error)
	// DeleteTestData removes generated profiles and returns their ids.
	DeleteTestData(ctx context.Context) ([]string, error)
	Distinct(ctx context.Context, field string, limit int) ([]string, error)
}

// UserStore keeps per-user favorites and ignore lists.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, u models.User) (*models.User, error)
	AddToList(ctx context.Context, userID string, list UserList, biodataID string) error
	RemoveFromList(ctx context.Context, userID string, list UserList, biodataID string) error
}

type UserList string

const (
	FavoritesList UserList = "favorites"
	IgnoreList    UserList = "ignoreList"
)
