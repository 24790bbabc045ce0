package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/repository"
)

// Response — единый конверт ответа API.
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	StatusCode int         `json:"statusCode,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func okMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: false, Error: message, StatusCode: status})
}

func badRequest(c echo.Context, message string) error {
	return fail(c, http.StatusBadRequest, message)
}

func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "invalid credentials")
}

func forbidden(c echo.Context) error {
	return fail(c, http.StatusForbidden, "access denied")
}

func notFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, message)
}

func conflict(c echo.Context, message string) error {
	return fail(c, http.StatusConflict, message)
}

func serverError(c echo.Context) error {
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// financeError переводит ошибки движка и хранилища в HTTP-статусы.
// ErrUnavailable дает 503: запрос можно повторить позже.
func financeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, finance.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, finance.ErrInvalidState):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, finance.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, finance.ErrPermissionDenied):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, finance.ErrUnavailable):
		return fail(c, http.StatusServiceUnavailable, "storage temporarily unavailable, retry later")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrInvalid):
		return fail(c, http.StatusBadRequest, "invalid reference")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "conflict")
	default:
		return serverError(c)
	}
}
