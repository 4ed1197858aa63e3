package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/internal/metrics"
	"github.com/roamly/traveldna/pkg/models"
)

// Cache key namespaces for materialized similarity results.
func SimilarUsersKey(userID uuid.UUID) string { return "similar_users:" + userID.String() }
func SimilarPOIsKey(itemID string) string    { return "similar_pois:" + itemID }

// feedbackBaseScores are the per-kind base interaction scores on a 0..5
// scale.
var feedbackBaseScores = map[models.FeedbackKind]float64{
	models.FeedbackVisit:         5,
	models.FeedbackSave:          4,
	models.FeedbackLike:          3,
	models.FeedbackShare:         3,
	models.FeedbackSkip:          1,
	models.FeedbackDislike:       0,
	models.FeedbackNotInterested: 0,
}

// FeedbackToScore converts an interaction into a 0..5 score. An explicit
// rating is averaged with the kind's base score.
func FeedbackToScore(kind models.FeedbackKind, rating *float64) float64 {
	base := feedbackBaseScores[kind]
	if rating != nil {
		return (base + *rating) / 2
	}
	return base
}

// CollaborativeService produces collaborative candidate scores from the
// feedback log and the interaction graph. Neighbor and co-occurrence
// results are memoized in the cache; the refresher recomputes them for
// recently active users so request-time lookups are usually cache-only.
type CollaborativeService struct {
	log    FeedbackLog
	graph  InteractionGraph
	cache  CacheStore
	config *config.CollaborativeConfig
	logger *logrus.Logger
}

func NewCollaborativeService(
	log FeedbackLog,
	graph InteractionGraph,
	cache CacheStore,
	cfg *config.CollaborativeConfig,
	logger *logrus.Logger,
) *CollaborativeService {
	return &CollaborativeService{
		log:    log,
		graph:  graph,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// Scores returns the merged collaborative score per unseen POI for a user.
// Returns ErrInsufficientData when the user has too little history for
// collaborative filtering; callers fall back to the popularity path.
func (s *CollaborativeService) Scores(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
	since := time.Now().Add(-s.config.Lookback)

	events, err := s.log.QueryByUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if len(events) < s.config.MinInteractions {
		return nil, ErrInsufficientData
	}

	vector := vectorize(events)
	seen := make(map[string]bool, len(vector))
	for itemID := range vector {
		seen[itemID] = true
	}

	neighbors, err := s.similarUsers(ctx, userID, vector)
	if err != nil && !errors.Is(err, ErrInsufficientData) {
		return nil, err
	}

	userBased := s.userBasedCandidates(ctx, neighbors, seen, since)
	itemBased := s.itemBasedCandidates(ctx, vector, seen, since)

	if len(userBased) == 0 && len(itemBased) == 0 {
		return nil, ErrInsufficientData
	}

	merged := make(map[string]float64, len(userBased)+len(itemBased))
	for itemID, weight := range userBased {
		merged[itemID] += s.config.UserWeight * weight
	}
	for itemID, weight := range itemBased {
		merged[itemID] += s.config.ItemWeight * weight
	}

	return merged, nil
}

// Recommend scores a candidate set purely from collaborative signals.
// Users without enough history get the popularity-ranked candidate set
// tagged fallback_popular instead of collaborative output.
func (s *CollaborativeService) Recommend(ctx context.Context, userID uuid.UUID, candidates []models.CandidatePOI) []models.ScoredCandidate {
	weights, err := s.Scores(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrInsufficientData) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Collaborative scoring failed, serving popularity fallback")
		}
		metrics.FallbacksServed.WithLabelValues("insufficient_history").Inc()
		return popularityRanked(candidates)
	}

	maxWeight := maxValue(weights)
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		weight := weights[candidates[i].ID]
		score := 0.0
		if maxWeight > 0 {
			score = weight / maxWeight
		}
		scored = append(scored, models.ScoredCandidate{
			POI:        candidates[i],
			Score:      score,
			Components: map[string]float64{"collaborative": weight},
			Source:     models.SourceCollaborative,
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	annotatePositions(scored)
	return scored
}

// SimilarUsers returns the cached neighbor list for a user, computing and
// caching it on a miss.
func (s *CollaborativeService) SimilarUsers(ctx context.Context, userID uuid.UUID) ([]models.SimilarUser, error) {
	since := time.Now().Add(-s.config.Lookback)
	events, err := s.log.QueryByUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if len(events) < s.config.MinInteractions {
		return nil, ErrInsufficientData
	}
	return s.similarUsers(ctx, userID, vectorize(events))
}

func (s *CollaborativeService) similarUsers(ctx context.Context, userID uuid.UUID, vector map[string]float64) ([]models.SimilarUser, error) {
	key := SimilarUsersKey(userID)

	var cached []models.SimilarUser
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		metrics.CacheHits.WithLabelValues("similar_users").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("similar_users").Inc()

	neighbors, err := s.computeSimilarUsers(ctx, userID, vector)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, neighbors, s.config.UserSimilarityTTL); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to cache similar users")
	}

	return neighbors, nil
}

func (s *CollaborativeService) computeSimilarUsers(ctx context.Context, userID uuid.UUID, vector map[string]float64) ([]models.SimilarUser, error) {
	since := time.Now().Add(-s.config.Lookback)

	itemIDs := make([]string, 0, len(vector))
	for itemID := range vector {
		itemIDs = append(itemIDs, itemID)
	}

	others, err := s.graph.InteractionVectors(ctx, userID, itemIDs, since)
	if err != nil {
		return nil, err
	}

	neighbors := make([]models.SimilarUser, 0, len(others))
	for otherID, otherVector := range others {
		common := commonItems(vector, otherVector)
		if common < s.config.MinCommonItems {
			continue
		}
		similarity := cosineSimilarity(vector, otherVector)
		if similarity <= s.config.SimilarityThreshold {
			continue
		}
		neighbors = append(neighbors, models.SimilarUser{
			UserID:      otherID,
			Similarity:  similarity,
			CommonItems: common,
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].CommonItems > neighbors[j].CommonItems
	})
	if len(neighbors) > s.config.MaxNeighbors {
		neighbors = neighbors[:s.config.MaxNeighbors]
	}

	return neighbors, nil
}

// userBasedCandidates accumulates each neighbor's positively-rated unseen
// items weighted by the neighbor's score times the neighbor similarity.
func (s *CollaborativeService) userBasedCandidates(ctx context.Context, neighbors []models.SimilarUser, seen map[string]bool, since time.Time) map[string]float64 {
	accumulated := make(map[string]float64)
	for _, neighbor := range neighbors {
		items, err := s.graph.PositiveItems(ctx, neighbor.UserID, since)
		if err != nil {
			s.logger.WithError(err).WithField("neighbor", neighbor.UserID).Warn("Failed to load neighbor items, skipping")
			continue
		}
		for itemID, score := range items {
			if seen[itemID] {
				continue
			}
			accumulated[itemID] += score * neighbor.Similarity
		}
	}
	return topWeights(accumulated, s.config.MaxUserCandidates)
}

// itemBasedCandidates expands every highly-rated seed item through its
// co-occurrence neighborhood. Per-seed neighbor lists are cached.
func (s *CollaborativeService) itemBasedCandidates(ctx context.Context, vector map[string]float64, seen map[string]bool, since time.Time) map[string]float64 {
	accumulated := make(map[string]float64)
	for seedID, seedScore := range vector {
		if seedScore < s.config.SeedRatingFloor {
			continue
		}

		neighbors, err := s.itemNeighbors(ctx, seedID, since)
		if err != nil {
			s.logger.WithError(err).WithField("seed", seedID).Warn("Co-occurrence lookup failed, skipping seed")
			continue
		}

		seedWeight := seedScore / 5.0
		for _, neighbor := range neighbors {
			if seen[neighbor.ItemID] {
				continue
			}
			similarity := float64(neighbor.Count) * neighbor.AvgPositiveRate / 10.0
			if similarity > 1 {
				similarity = 1
			}
			accumulated[neighbor.ItemID] += similarity * seedWeight
		}
	}
	return topWeights(accumulated, s.config.MaxItemCandidates)
}

func (s *CollaborativeService) itemNeighbors(ctx context.Context, itemID string, since time.Time) ([]models.CoOccurrence, error) {
	key := SimilarPOIsKey(itemID)

	var cached []models.CoOccurrence
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		metrics.CacheHits.WithLabelValues("similar_pois").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("similar_pois").Inc()

	neighbors, err := s.graph.CoOccurrence(ctx, itemID, s.config.MinCoOccurrence, since)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, neighbors, s.config.ItemSimilarityTTL); err != nil {
		s.logger.WithError(err).WithField("item_id", itemID).Warn("Failed to cache co-occurrence neighbors")
	}

	return neighbors, nil
}

// StartRefresher periodically recomputes neighbor lists for recently active
// users so request-time lookups stay cache-only. It blocks until the context
// is cancelled; run it on its own goroutine.
func (s *CollaborativeService) StartRefresher(ctx context.Context) {
	if s.config.RefreshInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshActiveUsers(ctx)
		}
	}
}

func (s *CollaborativeService) refreshActiveUsers(ctx context.Context) {
	since := time.Now().Add(-s.config.Lookback)
	users, err := s.log.RecentActiveUsers(ctx, since, 200)
	if err != nil {
		s.logger.WithError(err).Warn("Similarity refresh skipped, could not list active users")
		return
	}

	refreshed := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}

		events, err := s.log.QueryByUser(ctx, userID, since)
		if err != nil || len(events) < s.config.MinInteractions {
			continue
		}

		neighbors, err := s.computeSimilarUsers(ctx, userID, vectorize(events))
		if err != nil {
			continue
		}
		if err := s.cache.Set(ctx, SimilarUsersKey(userID), neighbors, s.config.UserSimilarityTTL); err != nil {
			continue
		}
		refreshed++
	}

	s.logger.WithFields(logrus.Fields{
		"candidates": len(users),
		"refreshed":  refreshed,
	}).Debug("Similarity refresh pass complete")
}

// vectorize builds the user's itemId to score vector, averaging repeated
// interactions on the same item.
func vectorize(events []models.FeedbackEvent) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range events {
		event := &events[i]
		sums[event.ItemID] += FeedbackToScore(event.Kind, event.Rating)
		counts[event.ItemID]++
	}

	vector := make(map[string]float64, len(sums))
	for itemID, sum := range sums {
		vector[itemID] = sum / float64(counts[itemID])
	}
	return vector
}

func commonItems(a, b map[string]float64) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	common := 0
	for itemID := range a {
		if _, ok := b[itemID]; ok {
			common++
		}
	}
	return common
}

// cosineSimilarity treats the two sparse vectors as dense vectors over the
// union of their items with missing entries as zero. A zero-norm vector
// yields similarity 0.
func cosineSimilarity(a, b map[string]float64) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	for itemID := range a {
		union[itemID] = struct{}{}
	}
	for itemID := range b {
		union[itemID] = struct{}{}
	}

	va := make([]float64, 0, len(union))
	vb := make([]float64, 0, len(union))
	for itemID := range union {
		va = append(va, a[itemID])
		vb = append(vb, b[itemID])
	}

	normA := floats.Norm(va, 2)
	normB := floats.Norm(vb, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	return floats.Dot(va, vb) / (normA * normB)
}

// topWeights keeps the k highest-weighted entries of a weight map.
func topWeights(weights map[string]float64, k int) map[string]float64 {
	if len(weights) <= k {
		return weights
	}

	type entry struct {
		itemID string
		weight float64
	}
	entries := make([]entry, 0, len(weights))
	for itemID, weight := range weights {
		entries = append(entries, entry{itemID, weight})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].weight > entries[j].weight })

	top := make(map[string]float64, k)
	for _, e := range entries[:k] {
		top[e.itemID] = e.weight
	}
	return top
}
