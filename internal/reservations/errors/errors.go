package errors

import "errors"

var (
	ErrDateInPast = errors.New("reservation date must be today or in the future")

	ErrDateTooFar = errors.New("reservation date may not be more than three months in the future")

	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrDuplicate = errors.New("reservation already exists for this slot and date")
)
