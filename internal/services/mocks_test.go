package services

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/roamly/traveldna/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) Load(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *mockProfileRepo) Save(ctx context.Context, profile *models.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

type mockFeedbackLog struct {
	mock.Mock
}

func (m *mockFeedbackLog) Append(ctx context.Context, event *models.FeedbackEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockFeedbackLog) QueryByUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.FeedbackEvent, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedbackEvent), args.Error(1)
}

func (m *mockFeedbackLog) QueryItemStats(ctx context.Context, itemIDs []string, since time.Time) (map[string]models.ItemStats, error) {
	args := m.Called(ctx, itemIDs, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.ItemStats), args.Error(1)
}

func (m *mockFeedbackLog) RecentActiveUsers(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockInteractionGraph struct {
	mock.Mock
}

func (m *mockInteractionGraph) RecordFeedback(ctx context.Context, event *models.FeedbackEvent, score float64, positive bool) error {
	args := m.Called(ctx, event, score, positive)
	return args.Error(0)
}

func (m *mockInteractionGraph) InteractionVectors(ctx context.Context, userID uuid.UUID, itemIDs []string, since time.Time) (map[uuid.UUID]map[string]float64, error) {
	args := m.Called(ctx, userID, itemIDs, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]map[string]float64), args.Error(1)
}

func (m *mockInteractionGraph) PositiveItems(ctx context.Context, userID uuid.UUID, since time.Time) (map[string]float64, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *mockInteractionGraph) CoOccurrence(ctx context.Context, itemID string, minCount int, since time.Time) ([]models.CoOccurrence, error) {
	args := m.Called(ctx, itemID, minCount, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CoOccurrence), args.Error(1)
}

type mockPOIProvider struct {
	mock.Mock
}

func (m *mockPOIProvider) FindNearby(ctx context.Context, origin models.GeoPoint, radiusKm float64, categories []string) ([]models.CandidatePOI, error) {
	args := m.Called(ctx, origin, radiusKm, categories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CandidatePOI), args.Error(1)
}

func (m *mockPOIProvider) FindByIDs(ctx context.Context, ids []string) ([]models.CandidatePOI, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CandidatePOI), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event *models.FeedbackEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memoryCache is an in-process CacheStore for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}
