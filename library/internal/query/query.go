// Package query filters, sorts and paginates in-memory entity listings.
package query

import (
	"slices"
	"strings"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
)

type SortField string

const (
	SortByID    SortField = "id"
	SortByTitle SortField = "title"
	SortByValue SortField = "averageStars"
)

type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortByID, SortByTitle, SortByValue:
		return f, nil
	}
	return "", errs.ErrInvalidSortSpec
}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case ASC, DESC:
		return d, nil
	}
	return "", errs.ErrInvalidSortSpec
}

type Sort struct {
	Field     SortField
	Direction Direction
}

var ByIDAsc = Sort{Field: SortByID, Direction: ASC}

func (s Sort) Validate() error {
	if _, err := ParseSortField(string(s.Field)); err != nil {
		return err
	}
	_, err := ParseDirection(string(s.Direction))
	return err
}

type Spec struct {
	Query string
	Sort
	Page int
	Size int
}

// NewSpec builds a validated Spec from raw request parameters.
func NewSpec(query, orderBy, direction string, page, size int) (Spec, error) {
	field, err := ParseSortField(orderBy)
	if err != nil {
		return Spec{}, err
	}
	dir, err := ParseDirection(direction)
	if err != nil {
		return Spec{}, err
	}
	s := Spec{
		Query: query,
		Sort:  Sort{Field: field, Direction: dir},
		Page:  page,
		Size:  size,
	}
	return s, s.Validate()
}

func (s Spec) Validate() error {
	if err := s.Sort.Validate(); err != nil {
		return err
	}
	if s.Page < 0 || s.Size <= 0 {
		return errs.ErrInvalidPaging
	}
	return nil
}

// Schema describes how one entity type is matched against a text query
// and compared for every supported sort field.
// Match receives the query already lower-cased.
type Schema[T any] struct {
	Match   func(item T, query string) bool
	Compare map[SortField]func(a, b T) int
}

// Search never touches items: filtering and sorting happen on a copy.
func Search[T any](items []T, schema Schema[T], spec Spec) (model.List[T], error) {
	if err := spec.Validate(); err != nil {
		return model.List[T]{}, err
	}
	compare, ok := schema.Compare[spec.Field]
	if !ok {
		return model.List[T]{}, errs.ErrInvalidSortSpec
	}

	q := strings.ToLower(spec.Query)
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if schema.Match == nil || schema.Match(item, q) {
			filtered = append(filtered, item)
		}
	}
	sortStable(filtered, compare, spec.Direction)

	total := len(filtered)
	page := []T{}
	// (total-1)/Size is the last page index; Page*Size cannot overflow below it.
	if total > 0 && spec.Page <= (total-1)/spec.Size {
		start := spec.Page * spec.Size
		end := start + min(spec.Size, total-start)
		page = filtered[start:end]
	}

	return model.List[T]{
		Paging: model.Paging{
			Page:          spec.Page,
			PageSize:      spec.Size,
			TotalElements: total,
		},
		Items: page,
	}, nil
}

// SortStable orders items in place.
func SortStable[T any](items []T, schema Schema[T], s Sort) error {
	if err := s.Validate(); err != nil {
		return err
	}
	compare, ok := schema.Compare[s.Field]
	if !ok {
		return errs.ErrInvalidSortSpec
	}
	sortStable(items, compare, s.Direction)
	return nil
}

func sortStable[T any](items []T, compare func(a, b T) int, dir Direction) {
	if dir == DESC {
		slices.SortStableFunc(items, func(a, b T) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(items, compare)
}
