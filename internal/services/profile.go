package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/internal/taxonomy"
	"github.com/roamly/traveldna/pkg/models"
)

// budgetPriceLevels maps a declared budget range to the POI price levels it
// accepts. An unknown or empty range behaves like mixed.
var budgetPriceLevels = map[models.BudgetRange]map[int]bool{
	models.BudgetBudget:   {1: true, 2: true},
	models.BudgetMidRange: {2: true, 3: true},
	models.BudgetLuxury:   {3: true, 4: true},
	models.BudgetMixed:    {1: true, 2: true, 3: true, 4: true},
}

// quizContribution assigns one quiz answer's weight to categories and
// persona labels. The answer (0..5) is scaled to [0,1] and multiplied by the
// per-target factor.
type quizContribution struct {
	categories map[string]float64
	labels     map[string]float64
}

var quizMapping = map[string]quizContribution{
	"food": {
		categories: map[string]float64{taxonomy.CategoryRestaurant: 1.0, taxonomy.CategoryCafe: 0.8},
		labels:     map[string]float64{"foodie": 1.0},
	},
	"culture": {
		categories: map[string]float64{taxonomy.CategoryMuseum: 1.0, taxonomy.CategoryGallery: 1.0, taxonomy.CategoryLandmark: 0.8},
		labels:     map[string]float64{"culture_seeker": 1.0},
	},
	"nature": {
		categories: map[string]float64{taxonomy.CategoryPark: 1.0, taxonomy.CategoryHiking: 1.0, taxonomy.CategoryBeach: 0.8},
		labels:     map[string]float64{"nature_lover": 1.0},
	},
	"nightlife": {
		categories: map[string]float64{taxonomy.CategoryNightlife: 1.0, taxonomy.CategoryBar: 0.9},
		labels:     map[string]float64{"night_owl": 1.0},
	},
	"shopping": {
		categories: map[string]float64{taxonomy.CategoryShopping: 1.0},
		labels:     map[string]float64{"shopper": 1.0},
	},
	"adventure": {
		categories: map[string]float64{taxonomy.CategoryHiking: 0.6, taxonomy.CategoryEntertainment: 0.8},
		labels:     map[string]float64{"adventurer": 1.0},
	},
}

// AdaptationTrends are signed sentiment sums grouped by category, time slot,
// and mood, produced by the feedback batching path.
type AdaptationTrends struct {
	Category map[string]float64
	TimeSlot map[string]float64
	Mood     map[string]float64
}

// ProfileService owns the travel profile lifecycle: quiz bootstrap,
// compatibility scoring, synchronous feedback updates, and the batched
// trend nudges.
type ProfileService struct {
	profiles ProfileRepository
	config   *config.ProfileConfig
	logger   *logrus.Logger
}

func NewProfileService(profiles ProfileRepository, cfg *config.ProfileConfig, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		config:   cfg,
		logger:   logger,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return s.profiles.Load(ctx, userID)
}

// CreateFromQuiz builds the initial profile from the onboarding quiz. The
// mapping is deterministic; answering the same quiz twice yields the same
// profile.
func (s *ProfileService) CreateFromQuiz(ctx context.Context, userID uuid.UUID, responses *models.QuizResponses) (*models.UserProfile, error) {
	profile := &models.UserProfile{
		UserID:              userID,
		CategoryPreferences: make(map[string]float64),
		PersonaLabels:       make(map[string]float64),
		ActivityPreferences: make(map[string]float64),
		BudgetRange:         responses.BudgetRange,
		PreferredDistanceKm: responses.PreferredDistanceKm,
		TransportModes:      responses.TransportModes,
		ConfidenceScore:     s.config.InitialConfidence,
	}

	if profile.BudgetRange == "" {
		profile.BudgetRange = models.BudgetMixed
	}
	if profile.PreferredDistanceKm <= 0 {
		profile.PreferredDistanceKm = 5
	}

	answers := map[string]int{
		"food":      responses.FoodImportance,
		"culture":   responses.CultureImportance,
		"nature":    responses.NatureImportance,
		"nightlife": responses.NightlifeImportance,
		"shopping":  responses.ShoppingImportance,
		"adventure": responses.AdventureLevel,
	}

	for answer, value := range answers {
		if value <= 0 {
			continue
		}
		weight := float64(value) / 5.0
		contribution := quizMapping[answer]
		for category, factor := range contribution.categories {
			profile.CategoryPreferences[category] = clamp01(profile.CategoryPreferences[category] + weight*factor)
		}
		for label, factor := range contribution.labels {
			profile.PersonaLabels[label] = clamp01(profile.PersonaLabels[label] + weight*factor)
		}
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save quiz profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"categories": len(profile.CategoryPreferences),
	}).Info("Created profile from quiz")

	return profile, nil
}

// Compatibility scores how well a candidate POI fits a profile. The score is
// the category preference weight, halved on a budget mismatch and cut to 30%
// when the POI lies beyond the preferred distance.
func (s *ProfileService) Compatibility(profile *models.UserProfile, poi *models.CandidatePOI) models.Compatibility {
	categoryWeight := profile.CategoryPreferences[poi.Category]

	levels, ok := budgetPriceLevels[profile.BudgetRange]
	if !ok {
		levels = budgetPriceLevels[models.BudgetMixed]
	}
	budgetMatch := levels[poi.PriceLevel]

	distanceOK := poi.DistanceMeters <= float64(profile.PreferredDistanceKm)*1000

	score := categoryWeight
	if !budgetMatch {
		score *= 0.5
	}
	if !distanceOK {
		score *= 0.3
	}

	return models.Compatibility{
		Score:          score,
		CategoryWeight: categoryWeight,
		BudgetMatch:    budgetMatch,
		DistanceOK:     distanceOK,
	}
}

// ApplyFeedback nudges the category preference for a single explicit event
// and persists the profile. It reports whether an update was applied; a
// missing profile is not an error, the event still flows through the batched
// adaptation path once a profile exists.
func (s *ProfileService) ApplyFeedback(ctx context.Context, userID uuid.UUID, category string, kind models.FeedbackKind) (bool, error) {
	delta, ok := s.config.FeedbackDeltas[string(kind)]
	if !ok || category == "" {
		return false, nil
	}

	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return false, nil
		}
		return false, err
	}

	profile.CategoryPreferences[category] = clamp01(profile.CategoryPreferences[category] + delta)

	if err := s.profiles.Save(ctx, profile); err != nil {
		return false, fmt.Errorf("failed to persist feedback update: %w", err)
	}

	return true, nil
}

// ApplyTrends applies a batch of bounded nudges to the profile. Category
// trends move categoryPreferences, time-slot trends move
// activityPreferences, and mood trends move the matching persona label.
func (s *ProfileService) ApplyTrends(ctx context.Context, userID uuid.UUID, trends AdaptationTrends) error {
	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil
		}
		return err
	}

	rates := s.config.AdaptationRates
	for category, trend := range trends.Category {
		profile.CategoryPreferences[category] = clamp01(profile.CategoryPreferences[category] + rates.Category*trend)
	}
	for slot, trend := range trends.TimeSlot {
		profile.ActivityPreferences[slot] = clamp01(profile.ActivityPreferences[slot] + rates.Activity*trend)
	}
	for mood, trend := range trends.Mood {
		profile.PersonaLabels[mood] = clamp01(profile.PersonaLabels[mood] + rates.Persona*trend)
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("failed to persist adapted profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"categories": len(trends.Category),
		"time_slots": len(trends.TimeSlot),
		"moods":      len(trends.Mood),
	}).Debug("Applied adaptation trends")

	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
