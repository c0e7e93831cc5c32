package service

import (
	"context"
	"errors"
	"net/http"

	itemserrors "itemshare/internal/items/errors"
	"itemshare/internal/items/validator"
	apperrors "itemshare/pkg/errors"
)

var (
	conflictErrors = []error{
		itemserrors.ErrUnavailable,
		itemserrors.ErrTooCloseToNext,
		itemserrors.ErrTooCloseToCurrent,
		itemserrors.ErrHeldIndefinitely,
		itemserrors.ErrSlotConflict,
		itemserrors.ErrNotHolder,
		itemserrors.ErrAlreadyShared,
	}
	validationErrors = []error{
		itemserrors.ErrInvalidInterval,
		itemserrors.ErrStartTooSoon,
		itemserrors.ErrDurationTooShort,
		itemserrors.ErrExpiryTooSoon,
	}
	notFoundErrors = []error{
		itemserrors.ErrReservationNotFound,
		itemserrors.ErrNotShared,
	}
	forbiddenErrors = []error{
		itemserrors.ErrNotReservationOwner,
		itemserrors.ErrNotStakeholder,
		itemserrors.ErrNotOwner,
	}
)

// toAppError maps domain errors to client errors. Messages come from the
// sentinel alone, so wrapped details such as queue positions stay in logs.
func toAppError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	if errors.Is(err, itemserrors.ErrItemNotFound) {
		return apperrors.NotFound("Item")
	}
	if errors.Is(err, itemserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid item ID format")
	}
	if sentinel := match(err, conflictErrors); sentinel != nil {
		return apperrors.Conflict(sentinel.Error())
	}
	if sentinel := match(err, validationErrors); sentinel != nil {
		return apperrors.Validation(sentinel.Error(), nil)
	}
	if sentinel := match(err, notFoundErrors); sentinel != nil {
		return apperrors.Wrap(err, apperrors.CodeNotFound, sentinel.Error(), http.StatusNotFound)
	}
	if sentinel := match(err, forbiddenErrors); sentinel != nil {
		return apperrors.Forbidden(sentinel.Error())
	}
	if errors.Is(err, itemserrors.ErrConcurrentModification) {
		return apperrors.Transient("Item store is busy, please retry", err)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.Validation("Invalid request", map[string]any{"errors": validationErrs})
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("Request timed out")
	}

	return apperrors.Internal(fallback, err)
}

func match(err error, sentinels []error) error {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
