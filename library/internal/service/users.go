package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
)

type Users struct {
	users      repository.UserRepository
	locks      *Locker
	adminEmail string
	log        *zap.Logger
}

func (s *Users) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	_, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return model.User{}, errs.ErrEmailExists
	case !errors.Is(err, errs.ErrUserNotFound):
		return model.User{}, err
	}
	role := model.RoleUser
	if s.adminEmail != "" && strings.EqualFold(req.Email, s.adminEmail) {
		role = model.RoleAdmin
	}
	user := model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      role,
	}
	if err := s.users.Save(ctx, &user); err != nil {
		return model.User{}, err
	}
	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *Users) FindByID(ctx context.Context, id int64) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Users) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *Users) Delete(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(userKey(id))
	defer unlock()
	return s.users.DeleteByID(ctx, id)
}

func (s *Users) ListUsers(ctx context.Context, spec query.Spec) (model.List[model.User], error) {
	if err := spec.Validate(); err != nil {
		return model.List[model.User]{}, err
	}
	users, err := s.users.FindAllSorted(ctx, query.ByIDAsc)
	if err != nil {
		return model.List[model.User]{}, err
	}
	return query.Search(users, query.Users, spec)
}
