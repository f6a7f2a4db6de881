package errs

import (
	"errors"
	"fmt"
)

// Error classes. Every concrete error below wraps exactly one of them,
// so callers classify with errors.Is(err, errs.ErrPrecondition) etc.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrInvalidSortSpec = fmt.Errorf("%w: invalid sort spec", ErrValidation)
	ErrInvalidPaging   = fmt.Errorf("%w: invalid paging", ErrValidation)
	ErrInvalidRating   = fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	ErrIsbnImmutable   = fmt.Errorf("%w: isbn can not be changed", ErrValidation)
	ErrInvalidMonths   = fmt.Errorf("%w: penalty months must be positive", ErrValidation)
	ErrReturnDate      = fmt.Errorf("%w: return date must be in the future", ErrValidation)

	ErrBookNotFound = fmt.Errorf("book %w", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrLoanNotFound = fmt.Errorf("loan %w", ErrNotFound)

	ErrBookOutOfStock   = fmt.Errorf("%w: book out of stock", ErrPrecondition)
	ErrUserHasPenalties = fmt.Errorf("%w: user has too many active penalties", ErrPrecondition)
	ErrNoRatings        = fmt.Errorf("%w: book has no ratings", ErrPrecondition)

	ErrStockConflict = fmt.Errorf("%w: stock would become negative", ErrConflict)
	ErrIsbnExists    = fmt.Errorf("%w: isbn already exists", ErrConflict)
	ErrEmailExists   = fmt.Errorf("%w: email already exists", ErrConflict)
)
