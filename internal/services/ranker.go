package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/internal/metrics"
	"github.com/roamly/traveldna/internal/taxonomy"
	"github.com/roamly/traveldna/pkg/models"
)

// moodCategories restricts personalized candidates to categories fitting the
// declared mood. Moods not listed apply no filter.
var moodCategories = map[string]map[string]bool{
	"relaxed": {
		taxonomy.CategoryPark: true, taxonomy.CategoryBeach: true, taxonomy.CategoryCafe: true,
		taxonomy.CategoryWellness: true, taxonomy.CategoryMuseum: true, taxonomy.CategoryGallery: true,
	},
	"adventurous": {
		taxonomy.CategoryHiking: true, taxonomy.CategoryBeach: true, taxonomy.CategoryPark: true,
		taxonomy.CategoryEntertainment: true, taxonomy.CategoryLandmark: true,
	},
	"romantic": {
		taxonomy.CategoryRestaurant: true, taxonomy.CategoryBar: true, taxonomy.CategoryBeach: true,
		taxonomy.CategoryLandmark: true, taxonomy.CategoryGallery: true,
	},
	"energetic": {
		taxonomy.CategoryNightlife: true, taxonomy.CategoryBar: true, taxonomy.CategoryEntertainment: true,
		taxonomy.CategoryShopping: true, taxonomy.CategoryHiking: true,
	},
	"cultural": {
		taxonomy.CategoryMuseum: true, taxonomy.CategoryGallery: true, taxonomy.CategoryLandmark: true,
	},
	"hungry": {
		taxonomy.CategoryRestaurant: true, taxonomy.CategoryCafe: true, taxonomy.CategoryBar: true,
	},
}

// timeOfDayCategories earn the +0.2 context boost.
var timeOfDayCategories = map[string]map[string]bool{
	"morning": {
		taxonomy.CategoryCafe: true, taxonomy.CategoryPark: true, taxonomy.CategoryHiking: true,
	},
	"afternoon": {
		taxonomy.CategoryMuseum: true, taxonomy.CategoryGallery: true, taxonomy.CategoryShopping: true,
		taxonomy.CategoryLandmark: true, taxonomy.CategoryPark: true,
	},
	"evening": {
		taxonomy.CategoryRestaurant: true, taxonomy.CategoryBar: true, taxonomy.CategoryEntertainment: true,
	},
	"night": {
		taxonomy.CategoryNightlife: true, taxonomy.CategoryBar: true,
	},
}

// weatherCategories earn the +0.1 context boost.
var weatherCategories = map[string]map[string]bool{
	"sunny": {
		taxonomy.CategoryPark: true, taxonomy.CategoryBeach: true, taxonomy.CategoryHiking: true,
	},
	"rainy": {
		taxonomy.CategoryMuseum: true, taxonomy.CategoryGallery: true, taxonomy.CategoryShopping: true,
		taxonomy.CategoryCafe: true, taxonomy.CategoryEntertainment: true,
	},
	"cloudy": {
		taxonomy.CategoryMuseum: true, taxonomy.CategoryLandmark: true,
	},
	"snowy": {
		taxonomy.CategoryCafe: true, taxonomy.CategoryMuseum: true, taxonomy.CategoryWellness: true,
	},
}

// RankerService combines the compatibility primitive, collaborative scores,
// and the bandit policy into the three named ranking modes plus the
// general-purpose fusion ranking. Ranking never raises to the caller; every
// internal fault collapses to the popularity path or the input order.
type RankerService struct {
	profiles      *ProfileService
	collaborative *CollaborativeService
	bandit        *BanditService
	config        *config.RankingConfig
	logger        *logrus.Logger
}

func NewRankerService(
	profiles *ProfileService,
	collaborative *CollaborativeService,
	bandit *BanditService,
	cfg *config.RankingConfig,
	logger *logrus.Logger,
) *RankerService {
	return &RankerService{
		profiles:      profiles,
		collaborative: collaborative,
		bandit:        bandit,
		config:        cfg,
		logger:        logger,
	}
}

func (s *RankerService) GetRecommendations(ctx context.Context, userID uuid.UUID, candidates []models.CandidatePOI, rctx models.RankingContext, mode models.RankingMode) *models.RecommendationResponse {
	start := time.Now()
	defer func() {
		metrics.RankingDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	}()

	response := &models.RecommendationResponse{
		UserID:      userID,
		Mode:        mode,
		GeneratedAt: time.Now(),
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			s.logger.WithError(err).WithField("user_id", userID).Error("Profile load failed, serving popularity fallback")
			response.Degraded = true
		}
		metrics.FallbacksServed.WithLabelValues("no_profile").Inc()
		response.Results = popularityRanked(candidates)
		return response
	}

	switch mode {
	case models.ModePersonalized:
		response.Results = s.rankPersonalized(profile, candidates, rctx)
	case models.ModeHiddenGems:
		response.Results = s.rankHiddenGems(candidates)
	default:
		response.Results = s.rankNearby(profile, candidates)
	}

	annotatePositions(response.Results)
	return response
}

// rankNearby orders by compatibility; candidates within the tie-break
// epsilon of each other fall back to distance, then popularity, then rating.
func (s *RankerService) rankNearby(profile *models.UserProfile, candidates []models.CandidatePOI) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		compat := s.profiles.Compatibility(profile, &candidates[i])
		scored = append(scored, models.ScoredCandidate{
			POI:   candidates[i],
			Score: compat.Score,
			Components: map[string]float64{
				"compatibility":   compat.Score,
				"category_weight": compat.CategoryWeight,
			},
			Source: models.SourceProfile,
		})
	}

	epsilon := s.config.TieBreakEpsilon
	sort.Slice(scored, func(i, j int) bool {
		a, b := &scored[i], &scored[j]
		if math.Abs(a.Score-b.Score) >= epsilon {
			return a.Score > b.Score
		}
		if a.POI.DistanceMeters != b.POI.DistanceMeters {
			return a.POI.DistanceMeters < b.POI.DistanceMeters
		}
		if a.POI.PopularityScore != b.POI.PopularityScore {
			return a.POI.PopularityScore > b.POI.PopularityScore
		}
		return a.POI.Rating > b.POI.Rating
	})

	return scored
}

// rankPersonalized pre-filters closed venues and mood mismatches, then
// blends compatibility with the situational context score.
func (s *RankerService) rankPersonalized(profile *models.UserProfile, candidates []models.CandidatePOI, rctx models.RankingContext) []models.ScoredCandidate {
	allowed := moodCategories[rctx.Mood]

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		poi := &candidates[i]
		if poi.OpenNow != nil && !*poi.OpenNow {
			continue
		}
		if allowed != nil && !allowed[poi.Category] {
			continue
		}

		compat := s.profiles.Compatibility(profile, poi)
		ctxScore := contextScore(poi.Category, rctx)
		final := s.config.CompatibilityWeight*compat.Score + s.config.ContextWeight*ctxScore

		scored = append(scored, models.ScoredCandidate{
			POI:   *poi,
			Score: final,
			Components: map[string]float64{
				"compatibility": compat.Score,
				"context":       ctxScore,
			},
			Source: models.SourceProfile,
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

func (s *RankerService) rankHiddenGems(candidates []models.CandidatePOI) []models.ScoredCandidate {
	gems := s.config.HiddenGems

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		poi := &candidates[i]
		if poi.ReviewCount >= gems.MaxReviewCount || poi.Rating < gems.MinRating || poi.PopularityScore >= gems.MaxPopularity {
			continue
		}

		normalizedRating := (poi.Rating - 3) / 2
		obscurity := math.Max(0, (100-float64(poi.ReviewCount))/100)
		score := 0.4*normalizedRating + 0.3*obscurity + 0.3*(1-poi.PopularityScore)

		scored = append(scored, models.ScoredCandidate{
			POI:   *poi,
			Score: score,
			Components: map[string]float64{
				"normalized_rating": normalizedRating,
				"obscurity":         obscurity,
				"unpopularity":      1 - poi.PopularityScore,
			},
			Source: models.SourceProfile,
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// GetPersonalizedRanking is the general-purpose fusion ranking. The
// collaborative and bandit signals run in parallel under a shared timeout;
// whatever is missing when the budget expires contributes zero. An internal
// fault collapses to the popularity ordering with Degraded set.
func (s *RankerService) GetPersonalizedRanking(ctx context.Context, userID uuid.UUID, candidates []models.CandidatePOI, rctx models.RankingContext) *models.RecommendationResponse {
	start := time.Now()
	defer func() {
		metrics.RankingDuration.WithLabelValues("fusion").Observe(time.Since(start).Seconds())
	}()

	response := &models.RecommendationResponse{
		UserID:      userID,
		GeneratedAt: time.Now(),
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			metrics.FallbacksServed.WithLabelValues("no_profile").Inc()
			response.Results = popularityRanked(candidates)
			annotatePositions(response.Results)
			return response
		}
		s.logger.WithError(err).WithField("user_id", userID).Error("Fusion ranking degraded, profile load failed")
		metrics.FallbacksServed.WithLabelValues("internal_error").Inc()
		response.Degraded = true
		response.Results = popularityRanked(candidates)
		annotatePositions(response.Results)
		return response
	}

	cfScores, arms := s.gatherSignals(ctx, userID, candidates)

	maxCF := maxValue(cfScores)
	maxUCB := 0.0
	armByItem := make(map[string]models.BanditArm, len(arms))
	for _, arm := range arms {
		armByItem[arm.ItemID] = arm
		if arm.UCB1Score > maxUCB {
			maxUCB = arm.UCB1Score
		}
	}

	fusion := s.config.Fusion
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		poi := &candidates[i]
		compat := s.profiles.Compatibility(profile, poi)

		cf := 0.0
		if maxCF > 0 {
			cf = cfScores[poi.ID] / maxCF
		}
		banditScore := 0.0
		arm, hasArm := armByItem[poi.ID]
		if hasArm && maxUCB > 0 {
			banditScore = arm.UCB1Score / maxUCB
		}
		ctxScore := contextScore(poi.Category, rctx)
		quality := poi.Rating / 5

		score := fusion.Compatibility*compat.Score +
			fusion.Collaborative*cf +
			fusion.Bandit*banditScore +
			fusion.Context*ctxScore +
			fusion.Quality*quality

		source := models.SourceProfile
		if cfScores[poi.ID] > 0 {
			source = models.SourceCollaborative
		} else if hasArm && arm.Computed {
			source = models.SourceBandit
		}

		scored = append(scored, models.ScoredCandidate{
			POI:   *poi,
			Score: score,
			Components: map[string]float64{
				"compatibility": compat.Score,
				"collaborative": cf,
				"bandit":        banditScore,
				"context":       ctxScore,
				"quality":       quality,
			},
			Source: source,
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	response.Results = scored
	annotatePositions(response.Results)
	return response
}

// gatherSignals runs the collaborative and bandit computations in parallel
// under the configured time budget. Either signal may come back empty.
func (s *RankerService) gatherSignals(ctx context.Context, userID uuid.UUID, candidates []models.CandidatePOI) (map[string]float64, []models.BanditArm) {
	signalCtx, cancel := context.WithTimeout(ctx, s.config.SignalTimeout)
	defer cancel()

	itemIDs := make([]string, len(candidates))
	for i := range candidates {
		itemIDs[i] = candidates[i].ID
	}

	var (
		wg       sync.WaitGroup
		cfScores map[string]float64
		arms     []models.BanditArm
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		scores, err := s.collaborative.Scores(signalCtx, userID)
		if err != nil {
			if !errors.Is(err, ErrInsufficientData) {
				s.logger.WithError(err).WithField("user_id", userID).Debug("Collaborative signal unavailable")
			}
			return
		}
		cfScores = scores
	}()
	go func() {
		defer wg.Done()
		ranked, err := s.bandit.Rank(signalCtx, itemIDs)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Debug("Bandit signal unavailable")
			return
		}
		arms = ranked
	}()
	wg.Wait()

	if cfScores == nil {
		cfScores = map[string]float64{}
	}
	return cfScores, arms
}

// contextScore starts at the neutral 0.5 and rewards time-of-day and weather
// matches for the candidate's category.
func contextScore(category string, rctx models.RankingContext) float64 {
	score := 0.5
	if timeOfDayCategories[rctx.TimeOfDay][category] {
		score += 0.2
	}
	if weatherCategories[rctx.Weather][category] {
		score += 0.1
	}
	return score
}

// popularityRanked is the shared fallback ordering: rating descending, then
// review count descending.
func popularityRanked(candidates []models.CandidatePOI) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		scored = append(scored, models.ScoredCandidate{
			POI:    candidates[i],
			Score:  candidates[i].Rating / 5,
			Source: models.SourceFallbackPopular,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := &scored[i], &scored[j]
		if a.POI.Rating != b.POI.Rating {
			return a.POI.Rating > b.POI.Rating
		}
		return a.POI.ReviewCount > b.POI.ReviewCount
	})

	return scored
}

func annotatePositions(results []models.ScoredCandidate) {
	for i := range results {
		results[i].Position = i + 1
	}
}

func maxValue(m map[string]float64) float64 {
	max := 0.0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}
