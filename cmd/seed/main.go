package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/course-conditions/internal/config"
	"github.com/course-conditions/internal/domain"
	"github.com/course-conditions/internal/postgres"
)

// courseFixture is the YAML shape of a provisioned course record
type courseFixture struct {
	ID            string  `yaml:"id"`
	LocationName  string  `yaml:"location_name"`
	AKA           string  `yaml:"aka"`
	StreetAddress string  `yaml:"street_address"`
	ZipCode       string  `yaml:"zip_code"`
	PhoneNumber   string  `yaml:"phone_number"`
	Latitude      float64 `yaml:"latitude"`
	Longitude     float64 `yaml:"longitude"`
	Amenities     string  `yaml:"amenities"`
	LocationType  string  `yaml:"location_type"`
	Notes         string  `yaml:"notes"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	coursesPath := flag.String("courses", "courses.yaml", "Path to course fixture file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	data, err := os.ReadFile(*coursesPath)
	if err != nil {
		logger.Error("failed to read course fixture", "error", err)
		os.Exit(1)
	}

	var fixtures []courseFixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		logger.Error("failed to parse course fixture", "error", err)
		os.Exit(1)
	}
	if len(fixtures) == 0 {
		logger.Error("course fixture is empty", "path", *coursesPath)
		os.Exit(1)
	}

	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var seeded int
	for _, f := range fixtures {
		if f.ID == "" || f.LocationName == "" || f.LocationType == "" {
			logger.Warn("skipping fixture missing id, location_name or location_type", "id", f.ID)
			continue
		}
		course := domain.Course{
			ID:            f.ID,
			LocationName:  f.LocationName,
			AKA:           f.AKA,
			StreetAddress: f.StreetAddress,
			ZipCode:       f.ZipCode,
			PhoneNumber:   f.PhoneNumber,
			Latitude:      f.Latitude,
			Longitude:     f.Longitude,
			Amenities:     f.Amenities,
			LocationType:  f.LocationType,
			Notes:         f.Notes,
		}
		if err := repo.UpsertCourse(ctx, &course); err != nil {
			logger.Error("failed to seed course", "id", f.ID, "error", err)
			os.Exit(1)
		}
		seeded++
	}

	fmt.Printf("seeded %d courses\n", seeded)
}
