package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/course-conditions/internal/config"
	"github.com/course-conditions/internal/domain"
)

// MaxMembershipIDs is the hard cap the backing store places on the number of
// IDs in a single membership query. Callers must partition larger ID sets.
const MaxMembershipIDs = 30

// reportIndexName is the composite index the batched report queries depend on
const reportIndexName = "idx_condition_reports_course_date"

// reportIndexDDL is the definition required for the batched range queries.
// Returned in diagnostics when the index is missing so operators can create it.
const reportIndexDDL = "CREATE INDEX " + reportIndexName +
	" ON condition_reports (course_id, date_played DESC)"

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id VARCHAR(64) PRIMARY KEY,
			location_name VARCHAR(255) NOT NULL,
			aka VARCHAR(255),
			street_address VARCHAR(255),
			zip_code VARCHAR(20),
			phone_number VARCHAR(32),
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			amenities TEXT,
			location_type VARCHAR(64) NOT NULL,
			notes TEXT,
			date_created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS condition_reports (
			id VARCHAR(64) PRIMARY KEY,
			course_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(128) NOT NULL,
			user_email VARCHAR(255),
			user_display_name VARCHAR(255) NOT NULL,
			rating INT NOT NULL,
			comment TEXT,
			date_played DATE NOT NULL,
			submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id VARCHAR(128) PRIMARY KEY,
			email VARCHAR(255),
			first_name VARCHAR(255),
			last_name VARCHAR(255),
			village VARCHAR(255),
			display_name VARCHAR(255),
			photo_url TEXT,
			is_premium BOOLEAN DEFAULT FALSE,
			date_created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_courses_type_name ON courses(location_type, location_name)`,
		`CREATE INDEX IF NOT EXISTS ` + reportIndexName + ` ON condition_reports(course_id, date_played DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// VerifyReportIndex checks that the composite index required by the batched
// report queries exists. A missing index is a deployment failure, not a data
// error, so the returned error carries the exact definition to create.
func (r *Repository) VerifyReportIndex(ctx context.Context) error {
	query := `SELECT EXISTS(SELECT 1 FROM pg_indexes WHERE indexname = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, reportIndexName).Scan(&exists); err != nil {
		return fmt.Errorf("checking report index: %w", err)
	}
	if !exists {
		return fmt.Errorf("missing composite index required by condition queries, run: %s", reportIndexDDL)
	}
	return nil
}

const courseColumns = `id, location_name, COALESCE(aka, ''), COALESCE(street_address, ''),
	COALESCE(zip_code, ''), COALESCE(phone_number, ''), COALESCE(latitude, 0),
	COALESCE(longitude, 0), COALESCE(amenities, ''), location_type, COALESCE(notes, ''), date_created`

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var c domain.Course
	err := row.Scan(
		&c.ID,
		&c.LocationName,
		&c.AKA,
		&c.StreetAddress,
		&c.ZipCode,
		&c.PhoneNumber,
		&c.Latitude,
		&c.Longitude,
		&c.Amenities,
		&c.LocationType,
		&c.Notes,
		&c.DateCreated,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CoursesByType retrieves all courses with the given stored location type,
// ordered by location name ascending
func (r *Repository) CoursesByType(ctx context.Context, locationType string) ([]domain.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE location_type = $1
		ORDER BY location_name ASC
	`
	rows, err := r.pool.Query(ctx, query, locationType)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// CourseByID retrieves a course by ID
func (r *Repository) CourseByID(ctx context.Context, courseID string) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	course, err := scanCourse(r.pool.QueryRow(ctx, query, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("getting course: %w", err)
	}
	return course, nil
}

// CourseExists checks if a course exists
func (r *Repository) CourseExists(ctx context.Context, courseID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking course existence: %w", err)
	}
	return exists, nil
}

// UpsertCourse inserts or replaces a course record. Used by the provisioning
// CLI; the service itself never mutates courses.
func (r *Repository) UpsertCourse(ctx context.Context, course *domain.Course) error {
	query := `
		INSERT INTO courses (id, location_name, aka, street_address, zip_code, phone_number,
			latitude, longitude, amenities, location_type, notes, date_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			location_name = $2, aka = $3, street_address = $4, zip_code = $5,
			phone_number = $6, latitude = $7, longitude = $8, amenities = $9,
			location_type = $10, notes = $11
	`
	created := course.DateCreated
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		course.ID,
		course.LocationName,
		course.AKA,
		course.StreetAddress,
		course.ZipCode,
		course.PhoneNumber,
		course.Latitude,
		course.Longitude,
		course.Amenities,
		course.LocationType,
		course.Notes,
		created,
	)
	if err != nil {
		return fmt.Errorf("upserting course: %w", err)
	}
	return nil
}

// InsertReport persists a new condition report, assigning its ID and
// submission timestamp
func (r *Repository) InsertReport(ctx context.Context, report *domain.ConditionReport) error {
	report.ID = uuid.NewString()
	report.SubmittedAt = time.Now().UTC()

	datePlayed, err := domain.ParseDate(report.DatePlayed)
	if err != nil {
		return domain.ErrInvalidDate
	}

	query := `
		INSERT INTO condition_reports (id, course_id, user_id, user_email, user_display_name,
			rating, comment, date_played, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		report.ID,
		report.CourseID,
		report.UserID,
		report.UserEmail,
		report.UserDisplayName,
		report.Rating,
		report.Comment,
		datePlayed,
		report.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

const reportColumns = `id, course_id, user_id, COALESCE(user_email, ''),
	user_display_name, rating, COALESCE(comment, ''), date_played, submitted_at`

func scanReports(rows pgx.Rows) ([]domain.ConditionReport, error) {
	var reports []domain.ConditionReport
	for rows.Next() {
		var rep domain.ConditionReport
		var datePlayed time.Time
		err := rows.Scan(
			&rep.ID,
			&rep.CourseID,
			&rep.UserID,
			&rep.UserEmail,
			&rep.UserDisplayName,
			&rep.Rating,
			&rep.Comment,
			&datePlayed,
			&rep.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		rep.DatePlayed = datePlayed.Format(time.DateOnly)
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// RecentReportsByCourse retrieves the most recent reports for a course by
// date played, capped at limit. Window filtering happens in the service
// layer on top of this capped result.
func (r *Repository) RecentReportsByCourse(ctx context.Context, courseID string, limit int) ([]domain.ConditionReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM condition_reports
		WHERE course_id = $1
		ORDER BY date_played DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, courseID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// ReportsByCourseSince retrieves reports for a batch of course IDs with
// date_played on or after since. len(courseIDs) must not exceed
// MaxMembershipIDs; the store rejects larger membership lists.
func (r *Repository) ReportsByCourseSince(ctx context.Context, courseIDs []string, since time.Time) ([]domain.ConditionReport, error) {
	if len(courseIDs) > MaxMembershipIDs {
		return nil, fmt.Errorf("membership query with %d ids exceeds store limit of %d", len(courseIDs), MaxMembershipIDs)
	}

	query := `
		SELECT ` + reportColumns + `
		FROM condition_reports
		WHERE course_id = ANY($1) AND date_played >= $2
		ORDER BY date_played DESC
	`
	rows, err := r.pool.Query(ctx, query, courseIDs, since)
	if err != nil {
		return nil, fmt.Errorf("batch listing reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// Profile retrieves a user's stored profile
func (r *Repository) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
			COALESCE(village, ''), COALESCE(display_name, ''), COALESCE(photo_url, ''),
			is_premium, date_created
		FROM profiles
		WHERE user_id = $1
	`
	var p domain.UserProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.Village,
		&p.DisplayName,
		&p.PhotoURL,
		&p.IsPremium,
		&p.DateCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile applies a partial profile update, creating the record if
// absent. Fields not carried by the update keep their stored values.
func (r *Repository) UpsertProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	query := `
		INSERT INTO profiles (user_id, first_name, last_name, village, display_name, date_created)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = COALESCE($2, profiles.first_name),
			last_name = COALESCE($3, profiles.last_name),
			village = COALESCE($4, profiles.village),
			display_name = COALESCE($5, profiles.display_name)
	`
	_, err := r.pool.Exec(ctx, query,
		userID,
		update.FirstName,
		update.LastName,
		update.Village,
		update.DisplayName,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}

	return r.Profile(ctx, userID)
}
