package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/pkg/models"
)

func testProfileConfig() *config.ProfileConfig {
	return &config.ProfileConfig{
		InitialConfidence: 0.7,
		FeedbackDeltas: map[string]float64{
			"like":           0.10,
			"save":           0.15,
			"visit":          0.20,
			"share":          0.10,
			"skip":           -0.05,
			"dislike":        -0.10,
			"not_interested": -0.15,
		},
		AdaptationRates: config.AdaptationRatesConfig{
			Category: 0.02,
			Activity: 0.01,
			Persona:  0.01,
		},
	}
}

func TestProfileService_Compatibility(t *testing.T) {
	service := NewProfileService(&mockProfileRepo{}, testProfileConfig(), testLogger())

	profile := &models.UserProfile{
		CategoryPreferences: map[string]float64{"restaurant": 0.9, "museum": 0.2},
		BudgetRange:         models.BudgetMidRange,
		PreferredDistanceKm: 5,
	}

	tests := []struct {
		name        string
		poi         models.CandidatePOI
		score       float64
		budgetMatch bool
		distanceOK  bool
	}{
		{
			name:        "full match on preferred category",
			poi:         models.CandidatePOI{Category: "restaurant", PriceLevel: 2, DistanceMeters: 2000, Rating: 4.5},
			score:       0.9,
			budgetMatch: true,
			distanceOK:  true,
		},
		{
			name:        "weak category preference dominates",
			poi:         models.CandidatePOI{Category: "museum", PriceLevel: 2, DistanceMeters: 1000, Rating: 4.8},
			score:       0.2,
			budgetMatch: true,
			distanceOK:  true,
		},
		{
			name:        "budget mismatch halves the score",
			poi:         models.CandidatePOI{Category: "restaurant", PriceLevel: 4, DistanceMeters: 2000},
			score:       0.45,
			budgetMatch: false,
			distanceOK:  true,
		},
		{
			name:        "out of range cuts the score to 30 percent",
			poi:         models.CandidatePOI{Category: "restaurant", PriceLevel: 2, DistanceMeters: 6000},
			score:       0.27,
			budgetMatch: true,
			distanceOK:  false,
		},
		{
			name:  "unknown category scores zero",
			poi:   models.CandidatePOI{Category: "bar", PriceLevel: 2, DistanceMeters: 1000},
			score: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compat := service.Compatibility(profile, &tt.poi)
			assert.InDelta(t, tt.score, compat.Score, 0.0001)
			if tt.score > 0 {
				assert.Equal(t, tt.budgetMatch, compat.BudgetMatch)
				assert.Equal(t, tt.distanceOK, compat.DistanceOK)
			}
		})
	}
}

func TestProfileService_Compatibility_MixedBudgetMatchesAllLevels(t *testing.T) {
	service := NewProfileService(&mockProfileRepo{}, testProfileConfig(), testLogger())

	profile := &models.UserProfile{
		CategoryPreferences: map[string]float64{"cafe": 0.8},
		BudgetRange:         models.BudgetMixed,
		PreferredDistanceKm: 5,
	}

	for level := 1; level <= 4; level++ {
		poi := models.CandidatePOI{Category: "cafe", PriceLevel: level, DistanceMeters: 100}
		compat := service.Compatibility(profile, &poi)
		assert.True(t, compat.BudgetMatch, "price level %d", level)
		assert.InDelta(t, 0.8, compat.Score, 0.0001)
	}
}

func TestProfileService_ApplyFeedback(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		kind     models.FeedbackKind
		before   float64
		expected float64
	}{
		{"like adds 0.10", models.FeedbackLike, 0.5, 0.6},
		{"save adds 0.15", models.FeedbackSave, 0.5, 0.65},
		{"visit adds 0.20", models.FeedbackVisit, 0.5, 0.7},
		{"dislike subtracts 0.10", models.FeedbackDislike, 0.5, 0.4},
		{"positive feedback clamps at 1", models.FeedbackVisit, 0.95, 1.0},
		{"negative feedback clamps at 0", models.FeedbackNotInterested, 0.05, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProfileRepo{}
			service := NewProfileService(repo, testProfileConfig(), testLogger())

			profile := &models.UserProfile{
				UserID:              userID,
				CategoryPreferences: map[string]float64{"restaurant": tt.before},
				PersonaLabels:       map[string]float64{},
				ActivityPreferences: map[string]float64{},
			}
			repo.On("Load", mock.Anything, userID).Return(profile, nil)
			repo.On("Save", mock.Anything, mock.Anything).Return(nil)

			applied, err := service.ApplyFeedback(context.Background(), userID, "restaurant", tt.kind)
			require.NoError(t, err)
			assert.True(t, applied)
			assert.InDelta(t, tt.expected, profile.CategoryPreferences["restaurant"], 0.0001)
			repo.AssertExpectations(t)
		})
	}
}

func TestProfileService_ApplyFeedback_MissingProfileIsNotAnError(t *testing.T) {
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, ErrProfileNotFound)

	service := NewProfileService(repo, testProfileConfig(), testLogger())
	applied, err := service.ApplyFeedback(context.Background(), uuid.New(), "restaurant", models.FeedbackLike)

	require.NoError(t, err)
	assert.False(t, applied)
}

func TestProfileService_CreateFromQuiz(t *testing.T) {
	repo := &mockProfileRepo{}
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := NewProfileService(repo, testProfileConfig(), testLogger())
	userID := uuid.New()

	responses := &models.QuizResponses{
		FoodImportance:      5,
		NatureImportance:    3,
		BudgetRange:         models.BudgetBudget,
		PreferredDistanceKm: 10,
		TransportModes:      []string{"walk", "transit"},
	}

	profile, err := service.CreateFromQuiz(context.Background(), userID, responses)
	require.NoError(t, err)

	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, models.BudgetBudget, profile.BudgetRange)
	assert.Equal(t, 10, profile.PreferredDistanceKm)
	assert.InDelta(t, 0.7, profile.ConfidenceScore, 0.0001)

	assert.InDelta(t, 1.0, profile.CategoryPreferences["restaurant"], 0.0001)
	assert.InDelta(t, 0.8, profile.CategoryPreferences["cafe"], 0.0001)
	assert.InDelta(t, 1.0, profile.PersonaLabels["foodie"], 0.0001)
	assert.InDelta(t, 0.6, profile.CategoryPreferences["park"], 0.0001)
	assert.InDelta(t, 0.6, profile.PersonaLabels["nature_lover"], 0.0001)

	// Untouched axes stay unset
	assert.NotContains(t, profile.CategoryPreferences, "nightlife")

	// Same answers, same profile
	again, err := service.CreateFromQuiz(context.Background(), userID, responses)
	require.NoError(t, err)
	assert.Equal(t, profile.CategoryPreferences, again.CategoryPreferences)
	assert.Equal(t, profile.PersonaLabels, again.PersonaLabels)
}

func TestProfileService_CreateFromQuiz_Defaults(t *testing.T) {
	repo := &mockProfileRepo{}
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := NewProfileService(repo, testProfileConfig(), testLogger())
	profile, err := service.CreateFromQuiz(context.Background(), uuid.New(), &models.QuizResponses{})
	require.NoError(t, err)

	assert.Equal(t, models.BudgetMixed, profile.BudgetRange)
	assert.Equal(t, 5, profile.PreferredDistanceKm)
}

func TestProfileService_ApplyTrends_BoundsInvariant(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	profile := &models.UserProfile{
		UserID:              userID,
		CategoryPreferences: map[string]float64{"restaurant": 0.9, "museum": 0.05},
		PersonaLabels:       map[string]float64{},
		ActivityPreferences: map[string]float64{},
	}
	repo.On("Load", mock.Anything, userID).Return(profile, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := NewProfileService(repo, testProfileConfig(), testLogger())

	err := service.ApplyTrends(context.Background(), userID, AdaptationTrends{
		Category: map[string]float64{"restaurant": 20, "museum": -20},
		TimeSlot: map[string]float64{"evening": 3},
		Mood:     map[string]float64{"relaxed": -2},
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, profile.CategoryPreferences["restaurant"])
	assert.Equal(t, 0.0, profile.CategoryPreferences["museum"])
	assert.InDelta(t, 0.03, profile.ActivityPreferences["evening"], 0.0001)
	assert.Equal(t, 0.0, profile.PersonaLabels["relaxed"])
}
