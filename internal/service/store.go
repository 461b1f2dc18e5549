package service

import (
	"context"
	"time"

	"github.com/course-conditions/internal/domain"
)

// CourseStore provides read access to provisioned course records
type CourseStore interface {
	CoursesByType(ctx context.Context, locationType string) ([]domain.Course, error)
	CourseByID(ctx context.Context, courseID string) (*domain.Course, error)
	CourseExists(ctx context.Context, courseID string) (bool, error)
}

// ReportStore persists and queries condition reports
type ReportStore interface {
	InsertReport(ctx context.Context, report *domain.ConditionReport) error
	RecentReportsByCourse(ctx context.Context, courseID string, limit int) ([]domain.ConditionReport, error)
	ReportsByCourseSince(ctx context.Context, courseIDs []string, since time.Time) ([]domain.ConditionReport, error)
}

// ProfileStore persists and queries user profiles
type ProfileStore interface {
	Profile(ctx context.Context, userID string) (*domain.UserProfile, error)
	UpsertProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.UserProfile, error)
}

// RateLimiter bounds per-user submission rates
type RateLimiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// EventPublisher emits report lifecycle events to downstream consumers
type EventPublisher interface {
	PublishReportCreated(ctx context.Context, report *domain.ConditionReport) error
}

// DisplayNamePropagator pushes display-name changes to the identity provider's
// own user record
type DisplayNamePropagator interface {
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
}
