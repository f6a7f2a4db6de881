package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-circulation/library/internal/query"
)

const (
	booksTableName       = `books`
	authorsTableName     = `authors`
	genresTableName      = `genres`
	bookAuthorsTableName = `book_authors`
	bookGenresTableName  = `book_genres`
	ratingsTableName     = `ratings`
	usersTableName       = `users`
	penaltiesTableName   = `penalties`
	loansTableName       = `loans`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.ForeignKeyViolation
}

// orderBy renders sort as SQL order terms. columns maps each sort field to an
// expression; ties fall back to idColumn ascending, which is the natural order.
func orderBy(sort query.Sort, columns map[query.SortField]string, idColumn string) ([]string, error) {
	if err := sort.Validate(); err != nil {
		return nil, err
	}
	expr := columns[sort.Field]
	nulls := "first"
	if sort.Direction == query.DESC {
		nulls = "last"
	}
	return []string{
		fmt.Sprintf("%s %s nulls %s", expr, sort.Direction, nulls),
		idColumn + " asc",
	}, nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}
