package service

import (
	"context"
	"fmt"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/huddlechat/huddle-backend/pkg/cache"
)

// UserService mirrors identity-provider profiles into the users table
type UserService interface {
	// Sync upserts the profile; repeated calls with the same profile within
	// the cache TTL skip the database.
	Sync(ctx context.Context, user *domain.User) error
}

type userService struct {
	users repository.UserRepository
	cache cache.Service
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository, cacheSvc cache.Service) UserService {
	if cacheSvc == nil {
		cacheSvc = cache.NewService(nil)
	}
	return &userService{users: users, cache: cacheSvc}
}

func (s *userService) Sync(ctx context.Context, user *domain.User) error {
	key := fmt.Sprintf("user:sync:%d", user.ID)
	fingerprint := user.Name + "\x00" + user.Email + "\x00" + user.Image

	var cached string
	if err := s.cache.Get(ctx, key, &cached); err == nil && cached == fingerprint {
		return nil
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("sync user: %w", err)
	}
	_ = s.cache.Set(ctx, key, fingerprint, cache.TTLDefault)
	return nil
}
