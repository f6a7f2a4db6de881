package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
)

var _ repository.LoanRepository = (*LoanRepository)(nil)

type LoanRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewLoanRepository(db *sqlx.DB, log *zap.Logger) *LoanRepository {
	return &LoanRepository{
		db:  db,
		log: log.Named("loans-repo"),
	}
}

var loanColumns = map[query.SortField]string{
	query.SortByID:    "l.id",
	query.SortByTitle: "lower(b.title)",
	query.SortByValue: "l.return_date",
}

func (r *LoanRepository) selectLoans() sq.SelectBuilder {
	return qb.Select("l.id", "l.user_id", "l.book_id", "b.title as book_title", "l.return_date", "l.penalty_generated").
		From(loansTableName + " l").
		Join(fmt.Sprintf("%s b on b.id = l.book_id", booksTableName))
}

func (r *LoanRepository) find(ctx context.Context, q sq.SelectBuilder) ([]model.Loan, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	loans := make([]model.Loan, 0)
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		r.log.Error("find", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return nil, errors.Wrap(err, "select loans")
	}
	return loans, nil
}

func (r *LoanRepository) FindByID(ctx context.Context, id int64) (model.Loan, error) {
	loans, err := r.find(ctx, r.selectLoans().Where(sq.Eq{"l.id": id}).Limit(1))
	if err != nil {
		return model.Loan{}, err
	}
	if len(loans) == 0 {
		return model.Loan{}, errs.ErrLoanNotFound
	}
	return loans[0], nil
}

func (r *LoanRepository) FindAll(ctx context.Context) ([]model.Loan, error) {
	return r.find(ctx, r.selectLoans().OrderBy("l.id asc"))
}

func (r *LoanRepository) FindAllSorted(ctx context.Context, sort query.Sort) ([]model.Loan, error) {
	order, err := orderBy(sort, loanColumns, "l.id")
	if err != nil {
		return nil, err
	}
	return r.find(ctx, r.selectLoans().OrderBy(order...))
}

func (r *LoanRepository) FindByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	return r.find(ctx, r.selectLoans().Where(sq.Eq{"l.user_id": userID}).OrderBy("l.id asc"))
}

func (r *LoanRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]model.Loan, error) {
	return r.find(ctx, r.selectLoans().
		Where(sq.GtOrEq{"l.return_date": from}).
		Where(sq.Lt{"l.return_date": to}).
		OrderBy("l.return_date asc", "l.id asc"))
}

func (r *LoanRepository) Save(ctx context.Context, loan *model.Loan) error {
	if loan.ID == 0 {
		query, args, err := qb.Insert(loansTableName).
			Columns("user_id", "book_id", "return_date", "penalty_generated").
			Values(loan.UserID, loan.BookID, loan.ReturnDate, loan.PenaltyGenerated).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return err
		}
		if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&loan.ID); err != nil {
			r.log.Error("Save", zap.String("q", query), zap.Any("args", args), zap.Error(err))
			return errors.Wrap(err, "insert loan")
		}
	} else {
		query, args, err := qb.Update(loansTableName).
			Set("user_id", loan.UserID).
			Set("book_id", loan.BookID).
			Set("return_date", loan.ReturnDate).
			Set("penalty_generated", loan.PenaltyGenerated).
			Where(sq.Eq{"id": loan.ID}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "update loan")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.ErrLoanNotFound
		}
	}
	saved, err := r.FindByID(ctx, loan.ID)
	if err != nil {
		return err
	}
	*loan = saved
	return nil
}

func (r *LoanRepository) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(loansTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "delete loan")
}

func (r *LoanRepository) MarkPenaltyGenerated(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`update loans set penalty_generated = true where id = $1 and not penalty_generated`, id)
	if err != nil {
		return false, errors.Wrap(err, "mark penalty generated")
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *LoanRepository) UnmarkPenaltyGenerated(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `update loans set penalty_generated = false where id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "unmark penalty generated")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrLoanNotFound
	}
	return nil
}
