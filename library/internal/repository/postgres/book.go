package postgres

import (
	"context"
	"database/sql"
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

var _ repository.BookRepository = (*BookRepository)(nil)

type BookRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBookRepository(db *sqlx.DB, log *zap.Logger) *BookRepository {
	return &BookRepository{
		db:  db,
		log: log.Named("books-repo"),
	}
}

var bookColumns = map[query.SortField]string{
	query.SortByID:    "b.id",
	query.SortByTitle: "lower(b.title)",
	query.SortByValue: fmt.Sprintf("(select avg(r.value) from %s r where r.book_id = b.id)", ratingsTableName),
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (model.Book, error) {
	return r.findOne(ctx, sq.Eq{"b.id": id})
}

func (r *BookRepository) FindByISBN(ctx context.Context, isbn string) (model.Book, error) {
	return r.findOne(ctx, sq.Eq{"b.isbn": isbn})
}

func (r *BookRepository) FindAll(ctx context.Context) ([]model.Book, error) {
	return r.find(ctx, nil, "b.id asc")
}

func (r *BookRepository) FindAllSorted(ctx context.Context, sort query.Sort) ([]model.Book, error) {
	order, err := orderBy(sort, bookColumns, "b.id")
	if err != nil {
		return nil, err
	}
	return r.find(ctx, nil, order...)
}

func (r *BookRepository) findOne(ctx context.Context, where sq.Sqlizer) (model.Book, error) {
	books, err := r.find(ctx, where, "b.id asc")
	if err != nil {
		return model.Book{}, err
	}
	if len(books) == 0 {
		return model.Book{}, errs.ErrBookNotFound
	}
	return books[0], nil
}

func (r *BookRepository) find(ctx context.Context, where sq.Sqlizer, order ...string) ([]model.Book, error) {
	q := qb.Select("b.id", "b.isbn", "b.title", "b.stock").
		From(booksTableName + " b")
	if where != nil {
		q = q.Where(where)
	}
	query, args, err := q.OrderBy(order...).ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		r.log.Error("find", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return nil, errors.Wrap(err, "select books")
	}
	if err := r.loadRelations(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

type bookAuthorRow struct {
	BookID int64 `db:"book_id"`
	model.Author
}

type bookGenreRow struct {
	BookID int64 `db:"book_id"`
	model.Genre
}

type ratingRow struct {
	BookID int64 `db:"book_id"`
	Value  int   `db:"value"`
}

func (r *BookRepository) loadRelations(ctx context.Context, books []model.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(books))
	index := make(map[int64]int, len(books))
	for i := range books {
		ids = append(ids, books[i].ID)
		index[books[i].ID] = i
		books[i].Authors = []model.Author{}
		books[i].Genres = []model.Genre{}
		books[i].Ratings = []int{}
	}

	query, args, err := qb.Select("ba.book_id", "a.id", "a.name").
		From(authorsTableName + " a").
		Join(fmt.Sprintf("%s ba on ba.author_id = a.id", bookAuthorsTableName)).
		Where(sq.Eq{"ba.book_id": ids}).
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return err
	}
	var authors []bookAuthorRow
	if err := r.db.SelectContext(ctx, &authors, query, args...); err != nil {
		return errors.Wrap(err, "select authors")
	}
	for _, a := range authors {
		b := &books[index[a.BookID]]
		b.Authors = append(b.Authors, a.Author)
	}

	query, args, err = qb.Select("bg.book_id", "g.id", "g.name").
		From(genresTableName + " g").
		Join(fmt.Sprintf("%s bg on bg.genre_id = g.id", bookGenresTableName)).
		Where(sq.Eq{"bg.book_id": ids}).
		OrderBy("g.id").
		ToSql()
	if err != nil {
		return err
	}
	var genres []bookGenreRow
	if err := r.db.SelectContext(ctx, &genres, query, args...); err != nil {
		return errors.Wrap(err, "select genres")
	}
	for _, g := range genres {
		b := &books[index[g.BookID]]
		b.Genres = append(b.Genres, g.Genre)
	}

	query, args, err = qb.Select("book_id", "value").
		From(ratingsTableName).
		Where(sq.Eq{"book_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return err
	}
	var ratings []ratingRow
	if err := r.db.SelectContext(ctx, &ratings, query, args...); err != nil {
		return errors.Wrap(err, "select ratings")
	}
	for _, rt := range ratings {
		b := &books[index[rt.BookID]]
		b.Ratings = append(b.Ratings, rt.Value)
	}
	return nil
}

func (r *BookRepository) Save(ctx context.Context, book *model.Book) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if book.ID == 0 {
			return r.insert(ctx, tx, book)
		}
		return r.update(ctx, tx, book)
	})
	if err != nil {
		return err
	}
	saved, err := r.FindByID(ctx, book.ID)
	if err != nil {
		return err
	}
	*book = saved
	return nil
}

func (r *BookRepository) insert(ctx context.Context, tx *sqlx.Tx, book *model.Book) error {
	query, args, err := qb.Insert(booksTableName).
		Columns("isbn", "title", "stock").
		Values(book.ISBN, book.Title, book.Stock).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return err
	}
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&book.ID); err != nil {
		if isUniqueViolation(err) {
			return errs.ErrIsbnExists
		}
		return errors.Wrap(err, "insert book")
	}
	for _, v := range book.Ratings {
		if _, err := tx.ExecContext(ctx,
			`insert into ratings (book_id, value) values ($1, $2)`, book.ID, v); err != nil {
			return errors.Wrap(err, "insert rating")
		}
	}
	return r.link(ctx, tx, book)
}

func (r *BookRepository) update(ctx context.Context, tx *sqlx.Tx, book *model.Book) error {
	query, args, err := qb.Update(booksTableName).
		Set("isbn", book.ISBN).
		Set("title", book.Title).
		Where(sq.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrIsbnExists
		}
		return errors.Wrap(err, "update book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrBookNotFound
	}
	for _, table := range []string{bookAuthorsTableName, bookGenresTableName} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`delete from %s where book_id = $1`, table), book.ID); err != nil {
			return errors.Wrap(err, "unlink "+table)
		}
	}
	return r.link(ctx, tx, book)
}

// link upserts authors and genres by name and attaches them to the book.
func (r *BookRepository) link(ctx context.Context, tx *sqlx.Tx, book *model.Book) error {
	for i := range book.Authors {
		id, err := upsertName(ctx, tx, authorsTableName, book.Authors[i].Name)
		if err != nil {
			return err
		}
		book.Authors[i].ID = id
		if _, err := tx.ExecContext(ctx,
			`insert into book_authors (book_id, author_id) values ($1, $2) on conflict do nothing`,
			book.ID, id); err != nil {
			return errors.Wrap(err, "link author")
		}
	}
	for i := range book.Genres {
		id, err := upsertName(ctx, tx, genresTableName, book.Genres[i].Name)
		if err != nil {
			return err
		}
		book.Genres[i].ID = id
		if _, err := tx.ExecContext(ctx,
			`insert into book_genres (book_id, genre_id) values ($1, $2) on conflict do nothing`,
			book.ID, id); err != nil {
			return errors.Wrap(err, "link genre")
		}
	}
	return nil
}

func upsertName(ctx context.Context, tx *sqlx.Tx, table, name string) (int64, error) {
	q := fmt.Sprintf(`insert into %s (name) values ($1)
	on conflict (name) do update set name = excluded.name
	returning id`, table)
	var id int64
	if err := tx.QueryRowxContext(ctx, q, name).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "upsert "+table)
	}
	return id, nil
}

func (r *BookRepository) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(booksTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "delete book")
}

func (r *BookRepository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	const q = `
update books
    set stock = stock + $2
where id = $1 and stock + $2 >= 0
returning stock`
	var stock int
	err := r.db.QueryRowxContext(ctx, q, id, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrap(err, "adjust stock")
	}

	if err := r.db.GetContext(ctx, &stock, `select stock from books where id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errs.ErrBookNotFound
		}
		return 0, errors.Wrap(err, "select stock")
	}
	r.log.Warn("stock adjustment rejected", zap.Int64("book_id", id), zap.Int("stock", stock), zap.Int("delta", delta))
	return stock, errs.ErrStockConflict
}

func (r *BookRepository) AddRating(ctx context.Context, id int64, value int) error {
	query, args, err := qb.Insert(ratingsTableName).
		Columns("book_id", "value").
		Values(id, value).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return errs.ErrBookNotFound
		}
		return errors.Wrap(err, "insert rating")
	}
	return nil
}
