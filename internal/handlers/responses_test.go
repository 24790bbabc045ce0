package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"example.com/construction-budget/backend/internal/finance"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if handlerErr := financeError(c, err); handlerErr != nil {
		t.Fatalf("unexpected handler error: %v", handlerErr)
	}

	return rec.Code
}

// TestFinanceErrorMapping проверяет перевод ошибок движка в HTTP-статусы.
func TestFinanceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: amount must be greater than zero", finance.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: request already approved", finance.ErrInvalidState), http.StatusBadRequest},
		{fmt.Errorf("%w: reallocation request", finance.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: approver role required", finance.ErrPermissionDenied), http.StatusForbidden},
		{fmt.Errorf("%w: context deadline exceeded", finance.ErrUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("some internal failure"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := statusFor(t, tc.err); got != tc.status {
			t.Fatalf("error %q: expected status %d, got %d", tc.err, tc.status, got)
		}
	}
}

// TestFinanceErrorEnvelope проверяет форму конверта ошибки.
func TestFinanceErrorEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := financeError(c, fmt.Errorf("%w: phase", finance.ErrNotFound)); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	if body.Success {
		t.Fatal("expected success=false")
	}
	if body.StatusCode != http.StatusNotFound {
		t.Fatalf("expected statusCode 404, got %d", body.StatusCode)
	}
	if body.Error == "" {
		t.Fatal("expected error message")
	}
}
