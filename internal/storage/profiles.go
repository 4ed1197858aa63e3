package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/services"
	"github.com/roamly/traveldna/pkg/models"
)

// ProfileStore persists travel profiles in Postgres. Preference maps are
// stored as JSONB.
type ProfileStore struct {
	db     Querier
	logger *logrus.Logger
}

func NewProfileStore(db Querier, logger *logrus.Logger) *ProfileStore {
	return &ProfileStore{db: db, logger: logger}
}

func (s *ProfileStore) Load(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	query := `
		SELECT user_id, category_preferences, persona_labels, activity_preferences,
			budget_range, preferred_distance_km, transport_modes, confidence_score, last_updated
		FROM travel_profiles
		WHERE user_id = $1`

	profile := &models.UserProfile{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.CategoryPreferences,
		&profile.PersonaLabels,
		&profile.ActivityPreferences,
		&profile.BudgetRange,
		&profile.PreferredDistanceKm,
		&profile.TransportModes,
		&profile.ConfidenceScore,
		&profile.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile.CategoryPreferences == nil {
		profile.CategoryPreferences = make(map[string]float64)
	}
	if profile.PersonaLabels == nil {
		profile.PersonaLabels = make(map[string]float64)
	}
	if profile.ActivityPreferences == nil {
		profile.ActivityPreferences = make(map[string]float64)
	}

	return profile, nil
}

func (s *ProfileStore) Save(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO travel_profiles (
			user_id, category_preferences, persona_labels, activity_preferences,
			budget_range, preferred_distance_km, transport_modes, confidence_score, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			category_preferences = EXCLUDED.category_preferences,
			persona_labels = EXCLUDED.persona_labels,
			activity_preferences = EXCLUDED.activity_preferences,
			budget_range = EXCLUDED.budget_range,
			preferred_distance_km = EXCLUDED.preferred_distance_km,
			transport_modes = EXCLUDED.transport_modes,
			confidence_score = EXCLUDED.confidence_score,
			last_updated = EXCLUDED.last_updated`

	if profile.LastUpdated.IsZero() {
		profile.LastUpdated = time.Now()
	}

	_, err := s.db.Exec(ctx, query,
		profile.UserID,
		profile.CategoryPreferences,
		profile.PersonaLabels,
		profile.ActivityPreferences,
		profile.BudgetRange,
		profile.PreferredDistanceKm,
		profile.TransportModes,
		profile.ConfidenceScore,
		profile.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
