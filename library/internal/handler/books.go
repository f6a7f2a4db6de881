package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

type copiesRequest struct {
	Count int `json:"count" validate:"gt=0"`
}

type ratingRequest struct {
	Value int `json:"value" validate:"min=1,max=5"`
}

type ratingResponse struct {
	BookID  int64   `json:"bookId"`
	Average float64 `json:"average"`
}

// ListBooks godoc
// @Summary search books by title, genre or author
// @Tags books
// @Param query query string false "text query"
// @Param orderBy query string false "id | title | averageStars"
// @Param direction query string false "ASC | DESC"
// @Param page query int false "0-indexed page"
// @Param size query int false "page size"
// @Success 200 {object} model.List[model.Book]
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	spec, err := h.listSpec(c)
	if err != nil {
		return err
	}
	books, err := h.books.ListBooks(c.Request().Context(), spec)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	book, err := h.books.FindByID(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) GetBookByISBN(c echo.Context) error {
	book, err := h.books.FindByISBN(c.Request().Context(), c.Param("isbn"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// AddBook godoc
// @Summary add a book to the catalog
// @Tags books
// @Accept json
// @Param book body model.Book true "book"
// @Success 201 {object} model.Book
// @Failure 409 "isbn already exists"
// @Router /books [post]
func (h *Handler) AddBook(c echo.Context) error {
	var book model.Book
	if err := c.Bind(&book); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&book); err != nil {
		return err
	}
	book, err := h.books.AddBook(c.Request().Context(), book)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var book model.Book
	if err := c.Bind(&book); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&book); err != nil {
		return err
	}
	book.ID = id
	book, err = h.books.UpdateBook(c.Request().Context(), book)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) RemoveBook(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.books.RemoveBook(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddCopies(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req copiesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	book, err := h.books.AddCopies(c.Request().Context(), id, req.Count)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) Rate(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req ratingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.books.Rate(c.Request().Context(), id, req.Value); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusCreated)
}

// GetRating godoc
// @Summary average rating of a book
// @Tags books
// @Param id path int true "book id"
// @Success 200 {object} ratingResponse
// @Failure 412 "book has no ratings"
// @Router /books/{id}/rating [get]
func (h *Handler) GetRating(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	avg, err := h.books.AverageRating(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, ratingResponse{BookID: id, Average: avg})
}
