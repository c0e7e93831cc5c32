package errors

import "errors"

var (
	ErrItemNotFound = errors.New("item not found")

	ErrInvalidID = errors.New("invalid item ID format")

	ErrConcurrentModification = errors.New("item was modified concurrently")

	ErrCorruptTimeline = errors.New("stored reservation arrays are not co-indexed")

	ErrInvariantViolated = errors.New("reservation timeline invariant violated")
)

// Reservation conflicts.
var (
	ErrUnavailable = errors.New("item unavailable")

	ErrTooCloseToNext = errors.New("too close to next reservation")

	ErrTooCloseToCurrent = errors.New("start too close to current reservation")

	ErrHeldIndefinitely = errors.New("item held indefinitely")

	ErrSlotConflict = errors.New("slot conflicts or insufficient gap")

	ErrNotHolder = errors.New("requester does not hold the item")
)

// Request validation.
var (
	ErrInvalidInterval = errors.New("start must be before end")

	ErrStartTooSoon = errors.New("start is too soon")

	ErrDurationTooShort = errors.New("reservation is too short")

	ErrExpiryTooSoon = errors.New("expiration is too soon")
)

// Access.
var (
	ErrReservationNotFound = errors.New("reservation not found")

	ErrNotReservationOwner = errors.New("requester does not own the reservation")

	ErrNotStakeholder = errors.New("requester has no access to the item")

	ErrNotOwner = errors.New("requester does not own the item")

	ErrAlreadyShared = errors.New("item is already shared with identity")

	ErrNotShared = errors.New("item is not shared with identity")
)
