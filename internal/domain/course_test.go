package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseTypeValid(t *testing.T) {
	tests := []struct {
		courseType CourseType
		valid      bool
	}{
		{CourseTypeExecutive, true},
		{CourseTypeChampionship, true},
		{CourseTypePitchPutt, true},
		{CourseType("par-3"), false},
		{CourseType(""), false},
		{CourseType("Executive Golf Course"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.courseType.Valid(), "type %q", tt.courseType)
	}
}

func TestCourseTypeLocationType(t *testing.T) {
	assert.Equal(t, "Executive Golf Course", CourseTypeExecutive.LocationType())
	assert.Equal(t, "Championship Golf Course", CourseTypeChampionship.LocationType())
	assert.Equal(t, "Pitch & Putt", CourseTypePitchPutt.LocationType())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-08")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("06/08/2024")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC), WindowStart(now, 7))

	// Time of day never shifts the window boundary
	justAfterMidnight := time.Date(2024, 6, 15, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, WindowStart(now, 7), WindowStart(justAfterMidnight, 7))
}

func TestProfileUpdateEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())

	village := "Sumter Landing"
	assert.False(t, ProfileUpdate{Village: &village}.Empty())
}
