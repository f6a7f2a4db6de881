package query_test

import (
	"math"
	"testing"
	"time"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/stretchr/testify/require"
)

func books() []model.Book {
	return []model.Book{
		{ID: 1, Title: "The Fantasy Atlas", Genres: []model.Genre{{Name: "Maps"}}, Ratings: []int{4}},
		{ID: 2, Title: "Dune", Genres: []model.Genre{{Name: "Science Fiction"}}, Ratings: []int{5, 3}},
		{ID: 3, Title: "A Wizard of Earthsea", Genres: []model.Genre{{Name: "Fantasy"}}},
		{ID: 4, Title: "Cooking at Home", Authors: []model.Author{{Name: "Fantasy Kitchen"}}, Ratings: []int{1}},
		{ID: 5, Title: "Clean Code", Authors: []model.Author{{Name: "Robert Martin"}}},
	}
}

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func bookID(b model.Book) int64 { return b.ID }

func TestSearch_Books(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		spec      query.Spec
		wantIDs   []int64
		wantTotal int
	}{
		{
			name:      "fantasy by title asc",
			spec:      query.Spec{Query: "fantasy", Sort: query.Sort{Field: query.SortByTitle, Direction: query.ASC}, Page: 0, Size: 10},
			wantIDs:   []int64{3, 4, 1},
			wantTotal: 3,
		},
		{
			name:      "fantasy by id desc",
			spec:      query.Spec{Query: "FANTASY", Sort: query.Sort{Field: query.SortByID, Direction: query.DESC}, Page: 0, Size: 10},
			wantIDs:   []int64{4, 3, 1},
			wantTotal: 3,
		},
		{
			name:      "page beyond the end",
			spec:      query.Spec{Query: "fantasy", Sort: query.Sort{Field: query.SortByTitle, Direction: query.ASC}, Page: 5, Size: 10},
			wantIDs:   []int64{},
			wantTotal: 3,
		},
		{
			name:      "second page",
			spec:      query.Spec{Query: "", Sort: query.Sort{Field: query.SortByID, Direction: query.ASC}, Page: 1, Size: 2},
			wantIDs:   []int64{3, 4},
			wantTotal: 5,
		},
		{
			name:      "last partial page",
			spec:      query.Spec{Query: "", Sort: query.Sort{Field: query.SortByID, Direction: query.ASC}, Page: 2, Size: 2},
			wantIDs:   []int64{5},
			wantTotal: 5,
		},
		{
			name:      "unrated first by value",
			spec:      query.Spec{Query: "", Sort: query.Sort{Field: query.SortByValue, Direction: query.ASC}, Page: 0, Size: 10},
			wantIDs:   []int64{3, 5, 4, 1, 2},
			wantTotal: 5,
		},
		{
			name:      "author match",
			spec:      query.Spec{Query: "martin", Sort: query.Sort{Field: query.SortByID, Direction: query.ASC}, Page: 0, Size: 10},
			wantIDs:   []int64{5},
			wantTotal: 1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := query.Search(books(), query.Books, tt.spec)
			require.NoError(t, err)
			require.Equal(t, tt.wantIDs, ids(got.Items, bookID))
			require.Equal(t, tt.wantTotal, got.TotalElements)
			require.Equal(t, tt.spec.Page, got.Page)
			require.Equal(t, tt.spec.Size, got.PageSize)
		})
	}
}

func TestSearch_StableTies(t *testing.T) {
	t.Parallel()
	items := []model.Book{
		{ID: 7, Title: "same"},
		{ID: 2, Title: "Same"},
		{ID: 9, Title: "same"},
	}
	asc, err := query.Search(items, query.Books, query.Spec{Sort: query.Sort{Field: query.SortByTitle, Direction: query.ASC}, Size: 10})
	require.NoError(t, err)
	require.Equal(t, []int64{7, 2, 9}, ids(asc.Items, bookID))

	desc, err := query.Search(items, query.Books, query.Spec{Sort: query.Sort{Field: query.SortByTitle, Direction: query.DESC}, Size: 10})
	require.NoError(t, err)
	require.Equal(t, []int64{7, 2, 9}, ids(desc.Items, bookID))
}

func TestSearch_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := books()
	_, err := query.Search(in, query.Books, query.Spec{Sort: query.Sort{Field: query.SortByID, Direction: query.DESC}, Size: 2})
	require.NoError(t, err)
	require.Equal(t, books(), in)
}

func TestSearch_InvalidSpec(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		spec    query.Spec
		wantErr error
	}{
		{"bad field", query.Spec{Sort: query.Sort{Field: "price", Direction: query.ASC}, Size: 1}, errs.ErrInvalidSortSpec},
		{"bad direction", query.Spec{Sort: query.Sort{Field: query.SortByID, Direction: "UP"}, Size: 1}, errs.ErrInvalidSortSpec},
		{"negative page", query.Spec{Sort: query.ByIDAsc, Page: -1, Size: 1}, errs.ErrInvalidPaging},
		{"zero size", query.Spec{Sort: query.ByIDAsc, Size: 0}, errs.ErrInvalidPaging},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := query.Search(books(), query.Books, tt.spec)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestNewSpec(t *testing.T) {
	t.Parallel()
	s, err := query.NewSpec("x", "averageStars", "DESC", 1, 5)
	require.NoError(t, err)
	require.Equal(t, query.SortByValue, s.Field)
	require.Equal(t, query.DESC, s.Direction)

	_, err = query.NewSpec("x", "title", "asc", 0, 5)
	require.ErrorIs(t, err, errs.ErrInvalidSortSpec)
}

func TestSearch_HugePageSize(t *testing.T) {
	t.Parallel()
	spec, err := query.NewSpec("", "id", "ASC", 0, math.MaxInt)
	require.NoError(t, err)
	got, err := query.Search(books(), query.Books, spec)
	require.NoError(t, err)
	require.Equal(t, 5, got.TotalElements)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, ids(got.Items, bookID))

	spec.Page = math.MaxInt
	got, err = query.Search(books(), query.Books, spec)
	require.NoError(t, err)
	require.Empty(t, got.Items)

	spec = query.Spec{Sort: query.ByIDAsc, Page: math.MaxInt / 2, Size: 3}
	got, err = query.Search(books(), query.Books, spec)
	require.NoError(t, err)
	require.Empty(t, got.Items)
}

func TestSearch_FoldedTitleOrder(t *testing.T) {
	t.Parallel()
	items := []model.Book{
		{ID: 1, Title: "ébène"},
		{ID: 2, Title: "Zebra"},
		{ID: 3, Title: "apple"},
		{ID: 4, Title: "Apple pie"},
		{ID: 5, Title: "ÉBÈNE"},
	}
	got, err := query.Search(items, query.Books, query.Spec{Sort: query.Sort{Field: query.SortByTitle, Direction: query.ASC}, Size: 10})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4, 2, 1, 5}, ids(got.Items, bookID))

	got, err = query.Search(items, query.Books, query.Spec{Query: "ÉBÈ", Sort: query.ByIDAsc, Size: 10})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 5}, ids(got.Items, bookID))
}

func TestSearch_Users(t *testing.T) {
	t.Parallel()
	users := []model.User{
		{ID: 1, FirstName: "Ana", LastName: "Zorn"},
		{ID: 2, FirstName: "Boris", LastName: "Anand"},
		{ID: 3, FirstName: "Carl", LastName: "Mann"},
	}
	got, err := query.Search(users, query.Users, query.Spec{Query: "an", Sort: query.Sort{Field: query.SortByTitle, Direction: query.ASC}, Size: 10})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3, 1}, ids(got.Items, func(u model.User) int64 { return u.ID }))
}

func TestSearch_Loans(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	loans := []model.Loan{
		{ID: 1, UserID: 10, ReturnDate: now.AddDate(0, 0, 3)},
		{ID: 2, UserID: 1, ReturnDate: now},
		{ID: 3, UserID: 10, ReturnDate: now.AddDate(0, 0, 1)},
	}
	got, err := query.Search(loans, query.Loans, query.Spec{Query: "10", Sort: query.Sort{Field: query.SortByValue, Direction: query.ASC}, Size: 10})
	require.NoError(t, err)
	require.Equal(t, 2, got.TotalElements)
	require.Equal(t, []int64{3, 1}, ids(got.Items, func(l model.Loan) int64 { return l.ID }))
}
