package domain

import "time"

// ConditionReport represents a dated course-condition report submitted by a user.
// UserDisplayName is a point-in-time snapshot of the reporter's display name
// captured at submission; it is never updated when the profile later changes.
type ConditionReport struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	UserID          string    `json:"user_id"`
	UserEmail       string    `json:"user_email,omitempty"`
	UserDisplayName string    `json:"user_display_name"`
	Rating          int       `json:"rating"`
	Comment         string    `json:"comment,omitempty"`
	DatePlayed      string    `json:"date_played"`
	SubmittedAt     time.Time `json:"timestamp"`
}

// ParseDate parses a plain YYYY-MM-DD calendar date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// WindowStart returns the earliest qualifying calendar date for a trailing
// window of windowDays ending at the current UTC day
func WindowStart(now time.Time, windowDays int) time.Time {
	today := now.UTC().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -windowDays)
}
