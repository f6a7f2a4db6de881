package query

import (
	"cmp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

// containsFold expects substr to be lower-cased already.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// compareFold orders strings as their lower-cased forms would without
// allocating them.
func compareFold(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		if c := cmp.Compare(unicode.ToLower(ra), unicode.ToLower(rb)); c != 0 {
			return c
		}
		a, b = a[na:], b[nb:]
	}
	return cmp.Compare(len(a), len(b))
}

// Books matches title, genre names and author names.
// Books without ratings sort before rated ones by value.
var Books = Schema[model.Book]{
	Match: func(b model.Book, q string) bool {
		if containsFold(b.Title, q) {
			return true
		}
		for _, g := range b.Genres {
			if containsFold(g.Name, q) {
				return true
			}
		}
		for _, a := range b.Authors {
			if containsFold(a.Name, q) {
				return true
			}
		}
		return false
	},
	Compare: map[SortField]func(a, b model.Book) int{
		SortByID:    func(a, b model.Book) int { return cmp.Compare(a.ID, b.ID) },
		SortByTitle: func(a, b model.Book) int { return compareFold(a.Title, b.Title) },
		SortByValue: func(a, b model.Book) int {
			ra, errA := a.AverageRating()
			rb, errB := b.AverageRating()
			switch {
			case errA != nil && errB != nil:
				return 0
			case errA != nil:
				return -1
			case errB != nil:
				return 1
			}
			return cmp.Compare(ra, rb)
		},
	},
}

// Users matches first or last name. Title sorts by "last first",
// value by the number of penalties held.
var Users = Schema[model.User]{
	Match: func(u model.User, q string) bool {
		return containsFold(u.FirstName, q) || containsFold(u.LastName, q)
	},
	Compare: map[SortField]func(a, b model.User) int{
		SortByID: func(a, b model.User) int { return cmp.Compare(a.ID, b.ID) },
		SortByTitle: func(a, b model.User) int {
			if c := compareFold(a.LastName, b.LastName); c != 0 {
				return c
			}
			return compareFold(a.FirstName, b.FirstName)
		},
		SortByValue: func(a, b model.User) int { return cmp.Compare(len(a.Penalties), len(b.Penalties)) },
	},
}

// Loans matches the exact user id. Title sorts by book title, value by return date.
var Loans = Schema[model.Loan]{
	Match: func(l model.Loan, q string) bool {
		return strconv.FormatInt(l.UserID, 10) == q
	},
	Compare: map[SortField]func(a, b model.Loan) int{
		SortByID:    func(a, b model.Loan) int { return cmp.Compare(a.ID, b.ID) },
		SortByTitle: func(a, b model.Loan) int { return compareFold(a.BookTitle, b.BookTitle) },
		SortByValue: func(a, b model.Loan) int { return a.ReturnDate.Compare(b.ReturnDate) },
	},
}
