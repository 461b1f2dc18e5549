package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-conditions/internal/domain"
)

func newCourseService(courses *fakeCourseStore, reports *fakeReportStore) *CourseService {
	conditions := newConditionService(courses, reports)
	return NewCourseService(courses, conditions, slog.Default())
}

func TestListByTypeInvalidType(t *testing.T) {
	svc := newCourseService(&fakeCourseStore{}, &fakeReportStore{})

	for _, courseType := range []string{"", "par-3", "Executive Golf Course"} {
		_, err := svc.ListByType(context.Background(), domain.CourseType(courseType))
		assert.ErrorIs(t, err, domain.ErrInvalidCourseType, "type %q", courseType)
	}
}

func TestListByTypeMergesAverages(t *testing.T) {
	courses := &fakeCourseStore{courses: []domain.Course{
		executiveCourse("c2", "Belmont"),
		executiveCourse("c1", "Amberwood"),
		{ID: "c9", LocationName: "Palmer Legends", LocationType: domain.CourseTypeChampionship.LocationType()},
	}}
	reports := &fakeReportStore{}
	svc := newCourseService(courses, reports)

	for _, rating := range []int{5, 4, 3} {
		_, err := svc.conditions.AddReport(context.Background(), submission("c1", rating, "2024-06-14"))
		require.NoError(t, err)
	}

	summaries, err := svc.ListByType(context.Background(), domain.CourseTypeExecutive)
	require.NoError(t, err)
	require.Len(t, summaries, 2, "other course types are excluded")

	// Name-ascending order from the registry is preserved in the listing
	assert.Equal(t, "Amberwood", summaries[0].LocationName)
	assert.Equal(t, "Belmont", summaries[1].LocationName)

	require.NotNil(t, summaries[0].RecentAverageRating)
	assert.InDelta(t, 4.0, *summaries[0].RecentAverageRating, 0.0001)
	assert.Nil(t, summaries[1].RecentAverageRating)
}

func TestListByTypeEmpty(t *testing.T) {
	svc := newCourseService(&fakeCourseStore{}, &fakeReportStore{})

	summaries, err := svc.ListByType(context.Background(), domain.CourseTypePitchPutt)
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestGetByID(t *testing.T) {
	courses := &fakeCourseStore{courses: []domain.Course{executiveCourse("c1", "Amberwood")}}
	svc := newCourseService(courses, &fakeReportStore{})

	course, err := svc.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Amberwood", course.LocationName)

	_, err = svc.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}
