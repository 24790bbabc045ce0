package repository

import (
	"context"
	"errors"
	"testing"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
)

// TestCategoryColumn проверяет белый список колонок категорий.
func TestCategoryColumn(t *testing.T) {
	cases := map[models.Category]string{
		models.CategoryDirectConstruction: "cat_direct_construction",
		models.CategoryPreConstruction:    "cat_pre_construction",
		models.CategoryIndirect:           "cat_indirect",
		models.CategoryContingency:        "cat_contingency",
	}

	for category, want := range cases {
		got, err := categoryColumn(category)
		if err != nil {
			t.Fatalf("category %s: unexpected error %v", category, err)
		}
		if got != want {
			t.Fatalf("category %s: expected %s, got %s", category, want, got)
		}
	}

	if _, err := categoryColumn("marketing"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown category, got %v", err)
	}
}

// TestNullLineColumns проверяет разложение строки бюджета на колонки.
func TestNullLineColumns(t *testing.T) {
	categoryLine := models.BudgetLine{Kind: models.LineKindCategory, Category: models.CategoryIndirect}
	if nullCategory(categoryLine) == nil || *nullCategory(categoryLine) != models.CategoryIndirect {
		t.Fatal("expected category pointer for category line")
	}
	if nullPhase(categoryLine) != nil {
		t.Fatal("expected nil phase for category line")
	}
}

// TestStorageErrTimeout проверяет перевод таймаута контекста в
// retryable-ошибку движка.
func TestStorageErrTimeout(t *testing.T) {
	err := storageErr(context.DeadlineExceeded)
	if !errors.Is(err, finance.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

// TestStorageErrPassthrough проверяет, что прочие ошибки не
// переоборачиваются.
func TestStorageErrPassthrough(t *testing.T) {
	original := errors.New("syntax error")
	if got := storageErr(original); !errors.Is(got, original) {
		t.Fatalf("expected original error, got %v", got)
	}
}
