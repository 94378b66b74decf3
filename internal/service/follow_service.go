package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"Yatube/internal/model"
	"Yatube/internal/repository/database"
)

type FollowService struct {
	follows *database.FollowRepository
	users   *database.UserRepository
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		follows: &database.FollowRepository{DB: db},
		users:   &database.UserRepository{DB: db},
	}
}

// Follow makes viewer follow the user called username and returns that user.
// Following someone twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, viewer *model.User, username string) (*model.User, error) {
	if viewer == nil || viewer.ID == 0 {
		return nil, ErrAuthRequired
	}
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	if author.ID == viewer.ID {
		return author, ErrSelfFollow
	}
	if _, err = s.follows.Follow(ctx, viewer.ID, author.ID); err != nil {
		return nil, fmt.Errorf("follow %s: %w", username, err)
	}
	return author, nil
}

// Unfollow removes the edge; ErrNotFound when viewer did not follow username.
func (s *FollowService) Unfollow(ctx context.Context, viewer *model.User, username string) (*model.User, error) {
	if viewer == nil || viewer.ID == 0 {
		return nil, ErrAuthRequired
	}
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	changed, err := s.follows.Unfollow(ctx, viewer.ID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("unfollow %s: %w", username, err)
	}
	if !changed {
		return author, fmt.Errorf("follow edge to %s: %w", username, ErrNotFound)
	}
	return author, nil
}

// IsFollowing is false for anonymous viewers and never errors for them.
func (s *FollowService) IsFollowing(ctx context.Context, viewer *model.User, authorID uint64) (bool, error) {
	if viewer == nil || viewer.ID == 0 || viewer.ID == authorID {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, viewer.ID, authorID)
}
