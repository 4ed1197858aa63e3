package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/roamly/traveldna/pkg/models"
)

// Sentinel errors shared across the engine.
var (
	// ErrProfileNotFound means no profile exists for the user yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrCacheMiss is returned by CacheStore.Get when the key is absent.
	ErrCacheMiss = errors.New("cache miss")
	// ErrInsufficientData means the user lacks the interaction history a
	// computation requires; callers fall back to the popularity path.
	ErrInsufficientData = errors.New("insufficient interaction data")
)

// ProfileRepository persists user profiles.
type ProfileRepository interface {
	Load(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Save(ctx context.Context, profile *models.UserProfile) error
}

// FeedbackLog is the append-only durable store of feedback events.
type FeedbackLog interface {
	Append(ctx context.Context, event *models.FeedbackEvent) error
	QueryByUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.FeedbackEvent, error)
	QueryItemStats(ctx context.Context, itemIDs []string, since time.Time) (map[string]models.ItemStats, error)
	RecentActiveUsers(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
}

// InteractionGraph serves the aggregate queries collaborative filtering
// needs: score vectors of users who share items with a target user,
// positively-rated item sets, and per-seed co-occurrence neighborhoods.
type InteractionGraph interface {
	RecordFeedback(ctx context.Context, event *models.FeedbackEvent, score float64, positive bool) error
	InteractionVectors(ctx context.Context, userID uuid.UUID, itemIDs []string, since time.Time) (map[uuid.UUID]map[string]float64, error)
	PositiveItems(ctx context.Context, userID uuid.UUID, since time.Time) (map[string]float64, error)
	CoOccurrence(ctx context.Context, itemID string, minCount int, since time.Time) ([]models.CoOccurrence, error)
}

// POIProvider resolves points of interest from the upstream map providers.
type POIProvider interface {
	FindNearby(ctx context.Context, origin models.GeoPoint, radiusKm float64, categories []string) ([]models.CandidatePOI, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.CandidatePOI, error)
}

// CacheStore is the TTL-bounded key-value cache. Get unmarshals into dest
// and returns ErrCacheMiss when the key is absent.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// FeedbackPublisher streams accepted feedback events to downstream
// consumers. Publishing is best-effort.
type FeedbackPublisher interface {
	Publish(ctx context.Context, event *models.FeedbackEvent) error
}

// FeedbackRecorderInterface is the caller-facing feedback contract.
type FeedbackRecorderInterface interface {
	RecordFeedback(ctx context.Context, req *models.FeedbackRequest) *models.FeedbackAck
}

// RankerInterface is the caller-facing ranking contract.
type RankerInterface interface {
	GetRecommendations(ctx context.Context, userID uuid.UUID, candidates []models.CandidatePOI, rctx models.RankingContext, mode models.RankingMode) *models.RecommendationResponse
	GetPersonalizedRanking(ctx context.Context, userID uuid.UUID, candidates []models.CandidatePOI, rctx models.RankingContext) *models.RecommendationResponse
}
