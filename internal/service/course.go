package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/course-conditions/internal/domain"
)

// CourseService provides business logic for course listing and lookup
type CourseService struct {
	courses    CourseStore
	conditions *ConditionService
	logger     *slog.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courses CourseStore, conditions *ConditionService, logger *slog.Logger) *CourseService {
	return &CourseService{
		courses:    courses,
		conditions: conditions,
		logger:     logger,
	}
}

// ListByType returns all courses of the given type ordered by name, each
// merged with its rolling-window average rating
func (s *CourseService) ListByType(ctx context.Context, courseType domain.CourseType) ([]domain.CourseSummary, error) {
	if !courseType.Valid() {
		return nil, domain.ErrInvalidCourseType
	}

	courses, err := s.courses.CoursesByType(ctx, courseType.LocationType())
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	averages, err := s.conditions.ComputeAverages(ctx, courses)
	if err != nil {
		return nil, fmt.Errorf("computing averages: %w", err)
	}

	summaries := make([]domain.CourseSummary, 0, len(courses))
	for _, course := range courses {
		summaries = append(summaries, domain.CourseSummary{
			ID:                  course.ID,
			LocationName:        course.LocationName,
			RecentAverageRating: averages[course.ID],
		})
	}
	return summaries, nil
}

// GetByID returns a course by ID
func (s *CourseService) GetByID(ctx context.Context, courseID string) (*domain.Course, error) {
	return s.courses.CourseByID(ctx, courseID)
}
