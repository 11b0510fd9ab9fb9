package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

func validateDraft(d *entity.ExpenseDraft) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return apperr.ValidationFailed("title is required")
	}
	if utf8.RuneCountInString(d.Title) > entity.MaxTitleLength {
		return apperr.ValidationFailed("title must be at most %d characters", entity.MaxTitleLength)
	}
	if !d.Amount.IsPositive() {
		return apperr.ValidationFailed("amount must be greater than zero")
	}
	if !d.Amount.Equal(d.Amount.Round(2)) {
		return apperr.ValidationFailed("amount must have at most two decimal places")
	}
	return nil
}

func validateLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperr.ValidationFailed("%s must be at most %d characters", field, max)
	}
	return nil
}
