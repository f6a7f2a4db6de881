package model

import (
	"time"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
)

type List[T any] struct {
	Paging `json:",inline"`
	Items  []T `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Author struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required"`
}

type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required"`
}

type Book struct {
	ID      int64    `json:"id" db:"id"`
	ISBN    string   `json:"isbn" db:"isbn" validate:"required"`
	Title   string   `json:"title" db:"title" validate:"required"`
	Authors []Author `json:"authors" db:"-" validate:"dive"`
	Genres  []Genre  `json:"genres" db:"-" validate:"dive"`
	Ratings []int    `json:"ratings" db:"-"`
	Stock   int      `json:"stock" db:"stock" validate:"gte=0"`
}

// AverageRating is undefined for a book nobody rated yet.
func (b Book) AverageRating() (float64, error) {
	if len(b.Ratings) == 0 {
		return 0, errs.ErrNoRatings
	}
	sum := 0
	for _, r := range b.Ratings {
		sum += r
	}
	return float64(sum) / float64(len(b.Ratings)), nil
}

func (b Book) Clone() Book {
	c := b
	c.Authors = append([]Author(nil), b.Authors...)
	c.Genres = append([]Genre(nil), b.Genres...)
	c.Ratings = append([]int(nil), b.Ratings...)
	return c
}

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID        int64     `json:"id" db:"id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	Penalties []Penalty `json:"penalties" db:"-"`
}

// ActivePenalties counts penalties whose expiry date has not passed at now.
func (u User) ActivePenalties(now time.Time) int {
	n := 0
	for _, p := range u.Penalties {
		if !p.Expired(now) {
			n++
		}
	}
	return n
}

func (u User) Clone() User {
	c := u
	c.Penalties = append([]Penalty(nil), u.Penalties...)
	return c
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type Penalty struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	AddedAt   time.Time `json:"addedAt" db:"added_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

func NewPenalty(userID int64, now time.Time, months int) Penalty {
	return Penalty{
		UserID:    userID,
		AddedAt:   now,
		ExpiresAt: now.AddDate(0, months, 0),
	}
}

func (p Penalty) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Loan is an open borrowing of one copy. It is deleted on return.
type Loan struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"userId" db:"user_id"`
	BookID           int64     `json:"bookId" db:"book_id"`
	BookTitle        string    `json:"bookTitle" db:"book_title"`
	ReturnDate       time.Time `json:"returnDate" db:"return_date"`
	PenaltyGenerated bool      `json:"penaltyGenerated" db:"penalty_generated"`
}

func (l Loan) Overdue(now time.Time) bool {
	return l.ReturnDate.Before(now)
}

type LoanRequest struct {
	UserID     int64     `json:"userId" validate:"required"`
	BookID     int64     `json:"bookId" validate:"required"`
	ReturnDate time.Time `json:"returnDate"`
}

type ReturnLoanMsg struct {
	LoanID int64 `json:"loanId"`
}

type LoanReminder struct {
	ID         string    `json:"id"`
	LoanID     int64     `json:"loanId"`
	UserID     int64     `json:"userId"`
	BookID     int64     `json:"bookId"`
	BookTitle  string    `json:"bookTitle"`
	ReturnDate time.Time `json:"returnDate"`
	SentAt     time.Time `json:"sentAt"`
}
