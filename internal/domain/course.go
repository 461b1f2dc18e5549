package domain

import "time"

// CourseType represents the course category used for filtering listings
type CourseType string

const (
	CourseTypeExecutive    CourseType = "executive"
	CourseTypeChampionship CourseType = "championship"
	CourseTypePitchPutt    CourseType = "pitch-putt"
)

// locationTypes maps the short query-param form to the stored location_type value
var locationTypes = map[CourseType]string{
	CourseTypeExecutive:    "Executive Golf Course",
	CourseTypeChampionship: "Championship Golf Course",
	CourseTypePitchPutt:    "Pitch & Putt",
}

// Valid reports whether t is one of the fixed course types
func (t CourseType) Valid() bool {
	_, ok := locationTypes[t]
	return ok
}

// LocationType returns the stored location_type value for t
func (t CourseType) LocationType() string {
	return locationTypes[t]
}

// Course represents a golf course location record
type Course struct {
	ID            string    `json:"id"`
	LocationName  string    `json:"locationName"`
	AKA           string    `json:"aka,omitempty"`
	StreetAddress string    `json:"streetAddress,omitempty"`
	ZipCode       string    `json:"zipCode,omitempty"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	Latitude      float64   `json:"latitude,omitempty"`
	Longitude     float64   `json:"longitude,omitempty"`
	Amenities     string    `json:"amenities,omitempty"`
	LocationType  string    `json:"locationType"`
	Notes         string    `json:"notes,omitempty"`
	DateCreated   time.Time `json:"dateCreated"`
}

// CourseSummary is the listing row returned for a course-type query.
// RecentAverageRating is nil when the course has no qualifying reports
// inside the rolling window, never 0.
type CourseSummary struct {
	ID                  string   `json:"id"`
	LocationName        string   `json:"locationName"`
	RecentAverageRating *float64 `json:"recentAverageRating"`
}
