package domain

import "errors"

// Domain errors
var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrProfileNotFound     = errors.New("user profile not found")
	ErrInvalidCourseType   = errors.New("invalid course type")
	ErrInvalidRating       = errors.New("invalid rating value, must be between 1 and 5")
	ErrMissingFields       = errors.New("missing required fields: courseId, rating, conditionDate")
	ErrInvalidDate         = errors.New("invalid date value, expected YYYY-MM-DD")
	ErrDisplayNameRequired = errors.New("user display name is required, please update your profile")
	ErrNoProfileFields     = errors.New("no fields provided for update")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalError       = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrCourseNotFound) || errors.Is(err, ErrProfileNotFound)
}

// IsValidationError checks if an error is a client-input validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidCourseType) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrDisplayNameRequired) ||
		errors.Is(err, ErrNoProfileFields) ||
		errors.Is(err, ErrInvalidRequest)
}
