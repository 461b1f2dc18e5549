package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/course-conditions/internal/domain"
)

type fakeCourseStore struct {
	courses []domain.Course
}

func (f *fakeCourseStore) CoursesByType(_ context.Context, locationType string) ([]domain.Course, error) {
	var out []domain.Course
	for _, c := range f.courses {
		if c.LocationType == locationType {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationName < out[j].LocationName })
	return out, nil
}

func (f *fakeCourseStore) CourseByID(_ context.Context, courseID string) (*domain.Course, error) {
	for _, c := range f.courses {
		if c.ID == courseID {
			course := c
			return &course, nil
		}
	}
	return nil, domain.ErrCourseNotFound
}

func (f *fakeCourseStore) CourseExists(_ context.Context, courseID string) (bool, error) {
	for _, c := range f.courses {
		if c.ID == courseID {
			return true, nil
		}
	}
	return false, nil
}

type fakeReportStore struct {
	mu         sync.Mutex
	reports    []domain.ConditionReport
	batchCalls [][]string
	lastLimit  int
	failBatch  bool
	nextID     int
}

func (f *fakeReportStore) InsertReport(_ context.Context, report *domain.ConditionReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	report.ID = fmt.Sprintf("report-%d", f.nextID)
	report.SubmittedAt = time.Now().UTC()
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakeReportStore) RecentReportsByCourse(_ context.Context, courseID string, limit int) ([]domain.ConditionReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit

	var out []domain.ConditionReport
	for _, r := range f.reports {
		if r.CourseID == courseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DatePlayed > out[j].DatePlayed })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReportStore) ReportsByCourseSince(_ context.Context, courseIDs []string, since time.Time) ([]domain.ConditionReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, courseIDs)

	if f.failBatch {
		return nil, errors.New("store unavailable")
	}

	members := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		members[id] = true
	}

	var out []domain.ConditionReport
	for _, r := range f.reports {
		if !members[r.CourseID] {
			continue
		}
		played, err := domain.ParseDate(r.DatePlayed)
		if err != nil {
			continue
		}
		if !played.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReportStore) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, 0, len(f.batchCalls))
	for _, call := range f.batchCalls {
		sizes = append(sizes, len(call))
	}
	sort.Ints(sizes)
	return sizes
}

type fakeProfileStore struct {
	profiles map[string]domain.UserProfile
	err      error
}

func (f *fakeProfileStore) Profile(_ context.Context, userID string) (*domain.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	profile := p
	return &profile, nil
}

func (f *fakeProfileStore) UpsertProfile(_ context.Context, userID string, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profiles == nil {
		f.profiles = make(map[string]domain.UserProfile)
	}
	p, ok := f.profiles[userID]
	if !ok {
		p = domain.UserProfile{UserID: userID, DateCreated: time.Now().UTC()}
	}
	if update.FirstName != nil {
		p.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		p.LastName = *update.LastName
	}
	if update.Village != nil {
		p.Village = *update.Village
	}
	if update.DisplayName != nil {
		p.DisplayName = *update.DisplayName
	}
	f.profiles[userID] = p
	profile := p
	return &profile, nil
}

type fakeLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeLimiter) Allow(_ context.Context, _ string) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.ConditionReport
	err    error
}

func (f *fakePublisher) PublishReportCreated(_ context.Context, report *domain.ConditionReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *report)
	return nil
}

type fakePropagator struct {
	calls []string
	err   error
}

func (f *fakePropagator) UpdateDisplayName(_ context.Context, _ string, displayName string) error {
	f.calls = append(f.calls, displayName)
	return f.err
}
