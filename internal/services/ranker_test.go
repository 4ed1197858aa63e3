package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/pkg/models"
)

func testRankingConfig() *config.RankingConfig {
	return &config.RankingConfig{
		CompatibilityWeight: 0.7,
		ContextWeight:       0.3,
		TieBreakEpsilon:     0.1,
		SignalTimeout:       400 * time.Millisecond,
		Fusion: config.FusionConfig{
			Compatibility: 0.35,
			Collaborative: 0.25,
			Bandit:        0.15,
			Context:       0.15,
			Quality:       0.10,
		},
		HiddenGems: config.HiddenGemsConfig{
			MaxReviewCount: 50,
			MinRating:      4.0,
			MaxPopularity:  0.7,
		},
	}
}

func newTestRanker(t *testing.T, repo *mockProfileRepo, log *mockFeedbackLog) *RankerService {
	t.Helper()
	profiles := NewProfileService(repo, testProfileConfig(), testLogger())
	collaborative := NewCollaborativeService(log, &mockInteractionGraph{}, newMemoryCache(), testCollaborativeConfig(), testLogger())
	bandit := NewBanditService(log, testBanditConfig(), testLogger())
	return NewRankerService(profiles, collaborative, bandit, testRankingConfig(), testLogger())
}

func TestRanker_Nearby_TieBreakByDistance(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, userID).Return(&models.UserProfile{
		UserID:              userID,
		CategoryPreferences: map[string]float64{"restaurant": 0.75, "cafe": 0.81},
		BudgetRange:         models.BudgetMixed,
		PreferredDistanceKm: 5,
	}, nil)

	ranker := newTestRanker(t, repo, &mockFeedbackLog{})

	candidates := []models.CandidatePOI{
		{ID: "far", Category: "cafe", PriceLevel: 2, DistanceMeters: 3000},
		{ID: "near", Category: "restaurant", PriceLevel: 2, DistanceMeters: 1000},
	}

	response := ranker.GetRecommendations(context.Background(), userID, candidates, models.RankingContext{}, models.ModeNearby)

	// 0.81 vs 0.75 is within the tie-break epsilon, so the closer candidate
	// wins despite the lower compatibility.
	require.Len(t, response.Results, 2)
	assert.Equal(t, "near", response.Results[0].POI.ID)
	assert.Equal(t, 1, response.Results[0].Position)
	assert.False(t, response.Degraded)
}

func TestRanker_Nearby_CompatibilityDominatesOutsideEpsilon(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, userID).Return(&models.UserProfile{
		UserID:              userID,
		CategoryPreferences: map[string]float64{"restaurant": 0.9, "museum": 0.2},
		BudgetRange:         models.BudgetMidRange,
		PreferredDistanceKm: 5,
	}, nil)

	ranker := newTestRanker(t, repo, &mockFeedbackLog{})

	candidates := []models.CandidatePOI{
		{ID: "museum", Category: "museum", PriceLevel: 2, DistanceMeters: 1000, Rating: 4.8},
		{ID: "restaurant", Category: "restaurant", PriceLevel: 2, DistanceMeters: 2000, Rating: 4.5},
	}

	response := ranker.GetRecommendations(context.Background(), userID, candidates, models.RankingContext{}, models.ModeNearby)

	require.Len(t, response.Results, 2)
	assert.Equal(t, "restaurant", response.Results[0].POI.ID)
	assert.InDelta(t, 0.9, response.Results[0].Score, 0.0001)
	assert.InDelta(t, 0.2, response.Results[1].Score, 0.0001)
}

func TestRanker_Personalized_FiltersAndContextBoosts(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, userID).Return(&models.UserProfile{
		UserID:              userID,
		CategoryPreferences: map[string]float64{"cafe": 0.8, "nightlife": 0.9, "park": 0.6},
		BudgetRange:         models.BudgetMixed,
		PreferredDistanceKm: 5,
	}, nil)

	ranker := newTestRanker(t, repo, &mockFeedbackLog{})

	closed := false
	candidates := []models.CandidatePOI{
		{ID: "cafe", Category: "cafe", PriceLevel: 1, DistanceMeters: 500},
		{ID: "club", Category: "nightlife", PriceLevel: 2, DistanceMeters: 500},
		{ID: "closed-park", Category: "park", DistanceMeters: 500, OpenNow: &closed},
	}

	rctx := models.RankingContext{TimeOfDay: "morning", Weather: "rainy", Mood: "relaxed"}
	response := ranker.GetRecommendations(context.Background(), userID, candidates, rctx, models.ModePersonalized)

	// The closed park and the mood-mismatched club are filtered out.
	require.Len(t, response.Results, 1)
	result := response.Results[0]
	assert.Equal(t, "cafe", result.POI.ID)

	// morning+cafe earns +0.2 and rainy+cafe +0.1 on the 0.5 base.
	assert.InDelta(t, 0.8, result.Components["context"], 0.0001)
	assert.InDelta(t, 0.7*0.8+0.3*0.8, result.Score, 0.0001)
}

func TestRanker_HiddenGems(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, userID).Return(&models.UserProfile{
		UserID:              userID,
		CategoryPreferences: map[string]float64{},
		PreferredDistanceKm: 5,
	}, nil)

	ranker := newTestRanker(t, repo, &mockFeedbackLog{})

	candidates := []models.CandidatePOI{
		{ID: "gem", ReviewCount: 40, Rating: 4.2, PopularityScore: 0.5},
		{ID: "tourist-trap", ReviewCount: 200, Rating: 4.2, PopularityScore: 0.5},
		{ID: "mediocre", ReviewCount: 40, Rating: 3.5, PopularityScore: 0.5},
		{ID: "hyped", ReviewCount: 40, Rating: 4.2, PopularityScore: 0.9},
	}

	response := ranker.GetRecommendations(context.Background(), userID, candidates, models.RankingContext{}, models.ModeHiddenGems)

	require.Len(t, response.Results, 1)
	gem := response.Results[0]
	assert.Equal(t, "gem", gem.POI.ID)
	// 0.4*(4.2-3)/2 + 0.3*(100-40)/100 + 0.3*(1-0.5)
	assert.InDelta(t, 0.57, gem.Score, 0.0001)
}

func TestRanker_MissingProfileFallsBackToPopularity(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, userID).Return(nil, ErrProfileNotFound)

	ranker := newTestRanker(t, repo, &mockFeedbackLog{})

	candidates := []models.CandidatePOI{
		{ID: "low", Rating: 3.9, ReviewCount: 10},
		{ID: "high", Rating: 4.9, ReviewCount: 10},
	}

	response := ranker.GetRecommendations(context.Background(), userID, candidates, models.RankingContext{}, models.ModeNearby)

	require.Len(t, response.Results, 2)
	assert.Equal(t, "high", response.Results[0].POI.ID)
	assert.Equal(t, models.SourceFallbackPopular, response.Results[0].Source)
	assert.False(t, response.Degraded)
}

func TestRanker_GetPersonalizedRanking_InternalFaultDegradesToPopularity(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, userID).Return(nil, errors.New("connection reset"))

	ranker := newTestRanker(t, repo, &mockFeedbackLog{})

	candidates := []models.CandidatePOI{
		{ID: "first", Rating: 1.0},
		{ID: "second", Rating: 5.0},
		{ID: "third", Rating: 3.0},
	}

	response := ranker.GetPersonalizedRanking(context.Background(), userID, candidates, models.RankingContext{})

	assert.True(t, response.Degraded)
	require.Len(t, response.Results, 3)
	assert.Equal(t, "second", response.Results[0].POI.ID)
	assert.Equal(t, models.SourceFallbackPopular, response.Results[0].Source)
	assert.Equal(t, "third", response.Results[1].POI.ID)
	assert.Equal(t, "first", response.Results[2].POI.ID)
}

func TestRanker_GetPersonalizedRanking_FusionWithPartialSignals(t *testing.T) {
	userID := uuid.New()
	repo := &mockProfileRepo{}
	repo.On("Load", mock.Anything, userID).Return(&models.UserProfile{
		UserID:              userID,
		CategoryPreferences: map[string]float64{"restaurant": 0.9},
		BudgetRange:         models.BudgetMixed,
		PreferredDistanceKm: 5,
	}, nil)

	// Too little history for collaborative filtering; bandit stats exist
	// for one candidate.
	log := &mockFeedbackLog{}
	log.On("QueryByUser", mock.Anything, userID, mock.Anything).Return([]models.FeedbackEvent{}, nil)
	log.On("QueryItemStats", mock.Anything, mock.Anything, mock.Anything).Return(map[string]models.ItemStats{
		"r1": {ItemID: "r1", TotalInteractions: 10, PositiveInteractions: 9},
	}, nil)

	ranker := newTestRanker(t, repo, log)

	candidates := []models.CandidatePOI{
		{ID: "r1", Category: "restaurant", PriceLevel: 2, DistanceMeters: 1000, Rating: 4.5},
		{ID: "r2", Category: "restaurant", PriceLevel: 2, DistanceMeters: 1200, Rating: 4.0},
	}

	response := ranker.GetPersonalizedRanking(context.Background(), userID, candidates, models.RankingContext{})

	assert.False(t, response.Degraded)
	require.Len(t, response.Results, 2)
	assert.Equal(t, "r1", response.Results[0].POI.ID)
	assert.Equal(t, models.SourceBandit, response.Results[0].Source)
	assert.Equal(t, models.SourceProfile, response.Results[1].Source)

	components := response.Results[0].Components
	assert.Contains(t, components, "compatibility")
	assert.Contains(t, components, "bandit")
	assert.Contains(t, components, "quality")
	assert.Equal(t, 0.0, components["collaborative"])
}
