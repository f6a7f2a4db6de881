package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	md "github.com/Astemirdum/library-circulation/pkg/middleware"
	"github.com/Astemirdum/library-circulation/pkg/validate"
	_ "github.com/Astemirdum/library-circulation/swagger"
)

type Handler struct {
	books     BookService
	users     UserService
	penalties PenaltyService
	loans     LoanService
	log       *zap.Logger
}

func New(books BookService, users UserService, penalties PenaltyService, loans LoanService, log *zap.Logger) *Handler {
	return &Handler{
		books:     books,
		users:     users,
		penalties: penalties,
		loans:     loans,
		log:       log.Named("handler"),
	}
}

// @title Library circulation API
// @version 1.0
// @BasePath /api/v1
func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/books", h.ListBooks)
	api.POST("/books", h.AddBook)
	api.GET("/books/isbn/:isbn", h.GetBookByISBN)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.RemoveBook)
	api.POST("/books/:id/copies", h.AddCopies)
	api.POST("/books/:id/ratings", h.Rate)
	api.GET("/books/:id/rating", h.GetRating)

	api.GET("/users", h.ListUsers)
	api.POST("/users", h.Register)
	api.GET("/users/:id", h.GetUser)
	api.DELETE("/users/:id", h.DeleteUser)
	api.GET("/users/:id/penalties", h.GetPenalties)
	api.POST("/users/:id/penalties", h.AddPenalty)
	api.DELETE("/users/:id/penalties/expired", h.RemoveExpiredPenalties)
	api.DELETE("/users/:id/penalties/:penaltyId", h.RemovePenalty)
	api.POST("/users/:id/penalties/overdue", h.FlagOverdue)

	api.GET("/loans", h.ListLoans)
	api.POST("/loans", h.ApproveLoan)
	api.GET("/loans/:id", h.GetLoan)
	api.POST("/loans/:id/return", h.ReturnLoan)
	api.DELETE("/loans/:id", h.RemoveLoan)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps an error class to its status code.
func (h *Handler) httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrPrecondition):
		code = http.StatusPreconditionFailed
	case errors.Is(err, errs.ErrConflict):
		code = http.StatusConflict
	default:
		h.log.Error("internal", zap.Error(err))
	}
	return echo.NewHTTPError(code, err.Error())
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

func (h *Handler) listSpec(c echo.Context) (query.Spec, error) {
	var (
		err       error
		page      = 0
		size      = 10
		orderBy   = string(query.SortByID)
		direction = string(query.ASC)
	)
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil {
			return query.Spec{}, echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil {
			return query.Spec{}, echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}
	if v := c.QueryParam("orderBy"); v != "" {
		orderBy = v
	}
	if v := c.QueryParam("direction"); v != "" {
		direction = v
	}
	spec, err := query.NewSpec(c.QueryParam("query"), orderBy, direction, page, size)
	if err != nil {
		return query.Spec{}, h.httpError(err)
	}
	return spec, nil
}
