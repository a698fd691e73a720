package services

import (
	"context"

	"github.com/cohort-tools/apiserver/types"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id bson.ObjectID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id bson.ObjectID) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}
