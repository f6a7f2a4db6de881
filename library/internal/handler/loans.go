package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

// ListLoans requires userId; loans are only ever listed per user.
func (h *Handler) ListLoans(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is invalid")
	}
	spec, err := h.listSpec(c)
	if err != nil {
		return err
	}
	spec.Query = userID
	loans, err := h.loans.ListLoans(c.Request().Context(), spec)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

// ApproveLoan godoc
// @Summary lend a copy of a book to a user
// @Tags loans
// @Accept json
// @Param loan body model.LoanRequest true "loan"
// @Success 201 {object} model.Loan
// @Failure 412 "book out of stock or too many active penalties"
// @Router /loans [post]
func (h *Handler) ApproveLoan(c echo.Context) error {
	var req model.LoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	loan, err := h.loans.ApproveLoan(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) GetLoan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	loan, err := h.loans.FindLoan(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.loans.ReturnLoan(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveLoan(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.loans.RemoveLoan(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
