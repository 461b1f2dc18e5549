package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/course-conditions/internal/config"
	"github.com/course-conditions/internal/domain"
)

// ConditionService provides business logic for condition report operations
// and the rolling-window aggregation over them
type ConditionService struct {
	courses CourseStore
	reports ReportStore
	limiter RateLimiter
	events  EventPublisher
	cfg     *config.ConditionsConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewConditionService creates a new condition service
func NewConditionService(
	courses CourseStore,
	reports ReportStore,
	cfg *config.ConditionsConfig,
	logger *slog.Logger,
) *ConditionService {
	return &ConditionService{
		courses: courses,
		reports: reports,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// SetRateLimiter sets an optional per-user submission rate limiter
func (s *ConditionService) SetRateLimiter(limiter RateLimiter) {
	s.limiter = limiter
}

// SetEventPublisher sets an optional publisher for report-created events
func (s *ConditionService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// ReportSubmission carries the already-validated, typed parameters of a new
// condition report. The display name must be resolved by the caller before
// submission; anonymous reports are rejected.
type ReportSubmission struct {
	CourseID        string
	UserID          string
	UserEmail       string
	UserDisplayName string
	Rating          int
	Comment         string
	DatePlayed      string
}

// AddReport validates and persists a new condition report
func (s *ConditionService) AddReport(ctx context.Context, sub ReportSubmission) (*domain.ConditionReport, error) {
	if sub.UserDisplayName == "" {
		return nil, domain.ErrDisplayNameRequired
	}
	if sub.CourseID == "" || sub.DatePlayed == "" {
		return nil, domain.ErrMissingFields
	}
	if sub.Rating < 1 || sub.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}
	if _, err := domain.ParseDate(sub.DatePlayed); err != nil {
		return nil, domain.ErrInvalidDate
	}

	exists, err := s.courses.CourseExists(ctx, sub.CourseID)
	if err != nil {
		return nil, fmt.Errorf("checking course existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrCourseNotFound
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, sub.UserID)
		if err != nil {
			// Fail open: a down limiter must not block submissions
			s.logger.Warn("rate limiter unavailable, allowing submission", "user_id", sub.UserID, "error", err)
		} else if !allowed {
			return nil, domain.ErrRateLimited
		}
	}

	report := &domain.ConditionReport{
		CourseID:        sub.CourseID,
		UserID:          sub.UserID,
		UserEmail:       sub.UserEmail,
		UserDisplayName: sub.UserDisplayName,
		Rating:          sub.Rating,
		Comment:         sub.Comment,
		DatePlayed:      sub.DatePlayed,
	}
	if err := s.reports.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("inserting report: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishReportCreated(ctx, report); err != nil {
			// The report is already persisted; broker loss is advisory
			s.logger.Warn("failed to publish report event", "report_id", report.ID, "error", err)
		}
	}

	return report, nil
}

// RecentReports returns a course's reports inside the rolling window, newest
// date played first. The store caps the fetch at ReportLimit before the
// window filter runs, so bursty courses can drop in-window reports older
// than the newest ReportLimit.
func (s *ConditionService) RecentReports(ctx context.Context, courseID string) ([]domain.ConditionReport, error) {
	exists, err := s.courses.CourseExists(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("checking course existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrCourseNotFound
	}

	fetched, err := s.reports.RecentReportsByCourse(ctx, courseID, s.cfg.ReportLimit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	cutoff := domain.WindowStart(s.now(), s.cfg.WindowDays)
	reports := make([]domain.ConditionReport, 0, len(fetched))
	for _, rep := range fetched {
		played, err := domain.ParseDate(rep.DatePlayed)
		if err != nil {
			s.logger.Warn("skipping report with unparseable date", "report_id", rep.ID, "date_played", rep.DatePlayed)
			continue
		}
		if !played.Before(cutoff) {
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

// ComputeAverages computes the rolling-window average rating for each course.
// Batches of course IDs are queried concurrently; any batch failure fails the
// whole call, since a partial average would be misleading. Courses with no
// qualifying reports map to nil, never 0.
func (s *ConditionService) ComputeAverages(ctx context.Context, courses []domain.Course) (map[string]*float64, error) {
	averages := make(map[string]*float64, len(courses))
	if len(courses) == 0 {
		return averages, nil
	}

	courseIDs := make([]string, len(courses))
	for i, c := range courses {
		courseIDs[i] = c.ID
	}

	since := domain.WindowStart(s.now(), s.cfg.WindowDays)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		recent   []domain.ConditionReport
	)

	for start := 0; start < len(courseIDs); start += s.cfg.QueryBatchSize {
		end := min(start+s.cfg.QueryBatchSize, len(courseIDs))
		batch := courseIDs[start:end]

		wg.Add(1)
		go func() {
			defer wg.Done()
			reports, err := s.reports.ReportsByCourseSince(ctx, batch, since)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			recent = append(recent, reports...)
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("fetching recent reports: %w", firstErr)
	}

	type bucket struct {
		sum   int
		count int
	}
	buckets := make(map[string]*bucket, len(courseIDs))
	for _, rep := range recent {
		b := buckets[rep.CourseID]
		if b == nil {
			b = &bucket{}
			buckets[rep.CourseID] = b
		}
		b.sum += rep.Rating
		b.count++
	}

	for _, id := range courseIDs {
		if b := buckets[id]; b != nil && b.count > 0 {
			avg := math.Round(float64(b.sum)/float64(b.count)*10) / 10
			averages[id] = &avg
		} else {
			averages[id] = nil
		}
	}
	return averages, nil
}
