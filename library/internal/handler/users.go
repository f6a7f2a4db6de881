package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

type penaltyRequest struct {
	// Months defaults to the manual penalty duration when zero.
	Months int `json:"months" validate:"gte=0"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *Handler) ListUsers(c echo.Context) error {
	spec, err := h.listSpec(c)
	if err != nil {
		return err
	}
	users, err := h.users.ListUsers(c.Request().Context(), spec)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// Register godoc
// @Summary register a user
// @Tags users
// @Accept json
// @Param user body model.RegisterRequest true "user"
// @Success 201 {object} model.User
// @Failure 409 "email already exists"
// @Router /users [post]
func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	user, err := h.users.Register(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.FindByID(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetPenalties(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	penalties, err := h.penalties.Penalties(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, penalties)
}

func (h *Handler) AddPenalty(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req penaltyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	penalty, err := h.penalties.AddPenalty(c.Request().Context(), id, req.Months)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, penalty)
}

func (h *Handler) RemoveExpiredPenalties(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	removed, err := h.penalties.RemoveExpired(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: removed})
}

func (h *Handler) RemovePenalty(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	penaltyID, err := paramID(c, "penaltyId")
	if err != nil {
		return err
	}
	if err := h.penalties.RemoveByID(c.Request().Context(), id, penaltyID); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// FlagOverdue godoc
// @Summary penalize every overdue loan of the user once
// @Tags users
// @Param id path int true "user id"
// @Success 200 {object} countResponse
// @Router /users/{id}/penalties/overdue [post]
func (h *Handler) FlagOverdue(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	added, err := h.loans.FlagOverduePenalty(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: added})
}
