package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"example.com/construction-budget/backend/internal/finance"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid input")
)

// storageErr переводит таймауты и обрывы соединения в retryable
// finance.ErrUnavailable, остальные ошибки возвращает как есть.
func storageErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", finance.ErrUnavailable, err)
	}

	return err
}
