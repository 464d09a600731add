package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"biodata-platform/internal/logger"
	"biodata-platform/models"
)

// UserService manages favorites and the ignore list. It also serves the
// ignore list to search.
type UserService struct {
	users   UserStore
	biodata BiodataStore
	now     func() time.Time
}

func NewUserService(users UserStore, biodata BiodataStore) *UserService {
	return &UserService{users: users, biodata: biodata, now: time.Now}
}

// Upsert creates the user record on first sign-in and refreshes the profile
// fields afterwards. Lists are never touched here.
func (s *UserService) Upsert(ctx context.Context, id string, req models.UpsertUserRequest) (*models.User, error) {
	now := s.now().UTC()
	return s.users.Upsert(ctx, models.User{
		ID:        id,
		Name:      req.Name,
		Email:     req.Email,
		PhotoURL:  req.PhotoURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *UserService) AddFavorite(ctx context.Context, userID, biodataID string) error {
	user, err := s.checkAdd(ctx, userID, biodataID)
	if err != nil {
		return err
	}
	if slices.Contains(user.Favorites, biodataID) {
		return ErrAlreadyInFavorites
	}
	return s.users.AddToList(ctx, userID, FavoritesList, biodataID)
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, biodataID string) error {
	return s.users.RemoveFromList(ctx, userID, FavoritesList, biodataID)
}

func (s *UserService) Favorites(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(user.Favorites), nil
}

func (s *UserService) FavoriteDetails(ctx context.Context, userID string) ([]models.Biodata, error) {
	ids, err := s.Favorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, ids)
}

func (s *UserService) IsFavorite(ctx context.Context, userID, biodataID string) (bool, error) {
	ids, err := s.Favorites(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, biodataID), nil
}

// AddIgnored puts a profile on the ignore list and takes it off favorites.
func (s *UserService) AddIgnored(ctx context.Context, userID, biodataID string) error {
	user, err := s.checkAdd(ctx, userID, biodataID)
	if err != nil {
		return err
	}
	if slices.Contains(user.IgnoreList, biodataID) {
		return ErrAlreadyIgnored
	}
	if err := s.users.AddToList(ctx, userID, IgnoreList, biodataID); err != nil {
		return err
	}
	if slices.Contains(user.Favorites, biodataID) {
		if err := s.users.RemoveFromList(ctx, userID, FavoritesList, biodataID); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserService) RemoveIgnored(ctx context.Context, userID, biodataID string) error {
	return s.users.RemoveFromList(ctx, userID, IgnoreList, biodataID)
}

// GetIgnoreList returns the user's ignored ids. A user without a record has
// ignored nothing.
func (s *UserService) GetIgnoreList(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return nonNil(user.IgnoreList), nil
}

func (s *UserService) IgnoredDetails(ctx context.Context, userID string) ([]models.Biodata, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, user.IgnoreList)
}

func (s *UserService) IsIgnored(ctx context.Context, userID, biodataID string) (bool, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(user.IgnoreList, biodataID), nil
}

func (s *UserService) checkAdd(ctx context.Context, userID, biodataID string) (*models.User, error) {
	if _, err := s.biodata.GetByID(ctx, biodataID); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

// details loads the listed profiles, skipping any that no longer exist.
func (s *UserService) details(ctx context.Context, ids []string) ([]models.Biodata, error) {
	out := make([]models.Biodata, 0, len(ids))
	for _, id := range ids {
		b, err := s.biodata.GetByID(ctx, id)
		if errors.Is(err, ErrBiodataNotFound) {
			logger.Debug("Listed biodata no longer exists", "biodata_id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
