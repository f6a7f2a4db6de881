package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewUserRepository(db *sqlx.DB, log *zap.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: log.Named("users-repo"),
	}
}

var userColumns = map[query.SortField]string{
	query.SortByID:    "u.id",
	query.SortByTitle: "lower(u.last_name || ' ' || u.first_name)",
	query.SortByValue: fmt.Sprintf("(select count(*) from %s p where p.user_id = u.id)", penaltiesTableName),
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	return r.findOne(ctx, sq.Eq{"u.id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, sq.Eq{"u.email": email})
}

func (r *UserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	return r.find(ctx, nil, "u.id asc")
}

func (r *UserRepository) FindAllSorted(ctx context.Context, sort query.Sort) ([]model.User, error) {
	order, err := orderBy(sort, userColumns, "u.id")
	if err != nil {
		return nil, err
	}
	return r.find(ctx, nil, order...)
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Sqlizer) (model.User, error) {
	users, err := r.find(ctx, where, "u.id asc")
	if err != nil {
		return model.User{}, err
	}
	if len(users) == 0 {
		return model.User{}, errs.ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) find(ctx context.Context, where sq.Sqlizer, order ...string) ([]model.User, error) {
	q := qb.Select("u.id", "u.first_name", "u.last_name", "u.email", "u.role").
		From(usersTableName + " u")
	if where != nil {
		q = q.Where(where)
	}
	query, args, err := q.OrderBy(order...).ToSql()
	if err != nil {
		return nil, err
	}
	var users []model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		r.log.Error("find", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return nil, errors.Wrap(err, "select users")
	}
	if len(users) == 0 {
		return users, nil
	}

	ids := make([]int64, 0, len(users))
	index := make(map[int64]int, len(users))
	for i := range users {
		ids = append(ids, users[i].ID)
		index[users[i].ID] = i
		users[i].Penalties = []model.Penalty{}
	}
	query, args, err = qb.Select("id", "user_id", "added_at", "expires_at").
		From(penaltiesTableName).
		Where(sq.Eq{"user_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var penalties []model.Penalty
	if err := r.db.SelectContext(ctx, &penalties, query, args...); err != nil {
		return nil, errors.Wrap(err, "select penalties")
	}
	for _, p := range penalties {
		u := &users[index[p.UserID]]
		u.Penalties = append(u.Penalties, p)
	}
	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if user.ID == 0 {
			query, args, err := qb.Insert(usersTableName).
				Columns("first_name", "last_name", "email", "role").
				Values(user.FirstName, user.LastName, user.Email, user.Role).
				Suffix("returning id").
				ToSql()
			if err != nil {
				return err
			}
			if err := tx.QueryRowxContext(ctx, query, args...).Scan(&user.ID); err != nil {
				if isUniqueViolation(err) {
					return errs.ErrEmailExists
				}
				return errors.Wrap(err, "insert user")
			}
		} else {
			query, args, err := qb.Update(usersTableName).
				Set("first_name", user.FirstName).
				Set("last_name", user.LastName).
				Set("email", user.Email).
				Set("role", user.Role).
				Where(sq.Eq{"id": user.ID}).
				ToSql()
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				if isUniqueViolation(err) {
					return errs.ErrEmailExists
				}
				return errors.Wrap(err, "update user")
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return errs.ErrUserNotFound
			}
		}
		return r.savePenalties(ctx, tx, user)
	})
}

func (r *UserRepository) savePenalties(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	kept := make([]int64, 0, len(user.Penalties))
	for _, p := range user.Penalties {
		if p.ID != 0 {
			kept = append(kept, p.ID)
		}
	}
	query, args, err := qb.Delete(penaltiesTableName).
		Where(sq.Eq{"user_id": user.ID}).
		Where(sq.NotEq{"id": kept}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "delete penalties")
	}

	for i := range user.Penalties {
		p := &user.Penalties[i]
		p.UserID = user.ID
		if p.ID != 0 {
			continue
		}
		query, args, err := qb.Insert(penaltiesTableName).
			Columns("user_id", "added_at", "expires_at").
			Values(p.UserID, p.AddedAt, p.ExpiresAt).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&p.ID); err != nil {
			return errors.Wrap(err, "insert penalty")
		}
	}
	return nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(usersTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "delete user")
}
