package services

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/internal/metrics"
	"github.com/roamly/traveldna/internal/taxonomy"
	"github.com/roamly/traveldna/pkg/models"
)

// trendWeights are the signed sentiment weights summed during adaptation.
var trendWeights = map[models.FeedbackKind]float64{
	models.FeedbackLike:          1.0,
	models.FeedbackSave:          1.5,
	models.FeedbackVisit:         2.0,
	models.FeedbackShare:         1.0,
	models.FeedbackSkip:          -0.5,
	models.FeedbackDislike:       -1.0,
	models.FeedbackNotInterested: -1.5,
}

// highConfidenceKinds update the profile synchronously on receipt.
var highConfidenceKinds = map[models.FeedbackKind]bool{
	models.FeedbackLike:  true,
	models.FeedbackSave:  true,
	models.FeedbackVisit: true,
}

// positiveKinds mark an interaction as positive for graph and bandit
// accounting.
var positiveKinds = map[models.FeedbackKind]bool{
	models.FeedbackLike:  true,
	models.FeedbackSave:  true,
	models.FeedbackVisit: true,
	models.FeedbackShare: true,
}

type bufferKey struct {
	userID   uuid.UUID
	itemType models.ItemType
}

// bufferShard serializes buffer access per key range. The append and the
// threshold-check-and-clear must happen under the same lock or concurrent
// writers lose events.
type bufferShard struct {
	mu      sync.Mutex
	buffers map[bufferKey][]models.FeedbackEvent
}

// FeedbackService records feedback events: durable log first, then the
// interaction graph, the event stream, the synchronous profile update for
// high-confidence kinds, and the batched adaptation buffer.
type FeedbackService struct {
	log       FeedbackLog
	graph     InteractionGraph
	profiles  *ProfileService
	cache     CacheStore
	publisher FeedbackPublisher
	mapper    *taxonomy.Mapper
	config    *config.FeedbackConfig
	logger    *logrus.Logger
	shards    []*bufferShard
}

func NewFeedbackService(
	log FeedbackLog,
	graph InteractionGraph,
	profiles *ProfileService,
	cache CacheStore,
	publisher FeedbackPublisher,
	mapper *taxonomy.Mapper,
	cfg *config.FeedbackConfig,
	logger *logrus.Logger,
) *FeedbackService {
	shardCount := cfg.BufferShards
	if shardCount <= 0 {
		shardCount = 16
	}
	shards := make([]*bufferShard, shardCount)
	for i := range shards {
		shards[i] = &bufferShard{buffers: make(map[bufferKey][]models.FeedbackEvent)}
	}

	return &FeedbackService{
		log:       log,
		graph:     graph,
		profiles:  profiles,
		cache:     cache,
		publisher: publisher,
		mapper:    mapper,
		config:    cfg,
		logger:    logger,
		shards:    shards,
	}
}

// RecordFeedback never fails the caller. A durable-log failure is reported
// as RetryLater; the event still enters the in-memory buffer and counts
// toward adaptation.
func (s *FeedbackService) RecordFeedback(ctx context.Context, req *models.FeedbackRequest) *models.FeedbackAck {
	ack := &models.FeedbackAck{Accepted: true}

	event := &models.FeedbackEvent{
		ID:              uuid.New(),
		UserID:          req.UserID,
		ItemID:          req.ItemID,
		ItemType:        req.ItemType,
		Kind:            req.Kind,
		Rating:          req.Rating,
		Category:        s.canonicalCategory(req.Category),
		Context:         req.Context,
		ImplicitSignals: deriveImplicitSignals(&req.Context),
		Timestamp:       time.Now(),
	}

	if err := s.log.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": event.UserID,
			"item_id": event.ItemID,
		}).Error("Durable feedback append failed")
		metrics.FeedbackWriteFailures.Inc()
		ack.RetryLater = true
	}

	score := FeedbackToScore(event.Kind, event.Rating)
	if err := s.graph.RecordFeedback(ctx, event, score, positiveKinds[event.Kind]); err != nil {
		s.logger.WithError(err).WithField("user_id", event.UserID).Warn("Interaction graph write failed")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Feedback event publish failed")
		}
	}

	if highConfidenceKinds[event.Kind] {
		if _, err := s.profiles.ApplyFeedback(ctx, event.UserID, event.Category, event.Kind); err != nil {
			s.logger.WithError(err).WithField("user_id", event.UserID).Warn("Immediate profile update failed")
		}
	}

	batch := s.buffer(event)
	if batch != nil {
		s.adapt(ctx, event.UserID, batch)
		ack.AdaptationTriggered = true
	}

	metrics.FeedbackRecorded.WithLabelValues(string(event.Kind)).Inc()
	return ack
}

func (s *FeedbackService) canonicalCategory(raw string) string {
	if raw == "" {
		return ""
	}
	if taxonomy.IsKnown(raw) {
		return raw
	}
	return s.mapper.Canonical(raw)
}

// buffer appends the event to its per-key buffer and, when the batch size is
// reached, returns the drained batch. Returns nil otherwise.
func (s *FeedbackService) buffer(event *models.FeedbackEvent) []models.FeedbackEvent {
	key := bufferKey{userID: event.UserID, itemType: event.ItemType}
	shard := s.shards[shardIndex(key, len(s.shards))]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.buffers[key] = append(shard.buffers[key], *event)
	if len(shard.buffers[key]) < s.config.BatchSize {
		return nil
	}

	batch := shard.buffers[key]
	delete(shard.buffers, key)
	return batch
}

// adapt turns a drained batch into sentiment trends, applies them to the
// profile, and invalidates the user's similarity cache entries.
func (s *FeedbackService) adapt(ctx context.Context, userID uuid.UUID, batch []models.FeedbackEvent) {
	trends := AdaptationTrends{
		Category: make(map[string]float64),
		TimeSlot: make(map[string]float64),
		Mood:     make(map[string]float64),
	}

	for i := range batch {
		event := &batch[i]
		weight, ok := trendWeights[event.Kind]
		if !ok {
			continue
		}
		if event.Category != "" {
			trends.Category[event.Category] += weight
		}
		if event.Context.TimeOfDay != "" {
			trends.TimeSlot[event.Context.TimeOfDay] += weight
		}
		if event.Context.Mood != "" {
			trends.Mood[event.Context.Mood] += weight
		}
	}

	if err := s.profiles.ApplyTrends(ctx, userID, trends); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Adaptation batch failed")
		return
	}

	if err := s.cache.Del(ctx, SimilarUsersKey(userID)); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Cache invalidation failed")
	}

	metrics.AdaptationsTriggered.Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"batch_size": len(batch),
	}).Info("Adaptation batch applied")
}

// deriveImplicitSignals buckets the optional behavioral measurements with
// fixed thresholds. A missing measurement leaves its bucket empty.
func deriveImplicitSignals(fctx *models.FeedbackContext) models.ImplicitSignals {
	var signals models.ImplicitSignals

	if fctx.DwellTimeSec != nil {
		switch {
		case *fctx.DwellTimeSec > 30:
			signals.Engagement = "high"
		case *fctx.DwellTimeSec > 10:
			signals.Engagement = "medium"
		default:
			signals.Engagement = "low"
		}
	}

	if fctx.ClickDepth != nil {
		switch {
		case *fctx.ClickDepth > 3:
			signals.Interest = "high"
		case *fctx.ClickDepth > 1:
			signals.Interest = "medium"
		default:
			signals.Interest = "low"
		}
	}

	if fctx.TimeToActionSec != nil {
		switch {
		case *fctx.TimeToActionSec < 5:
			signals.Decisiveness = "quick"
		case *fctx.TimeToActionSec < 15:
			signals.Decisiveness = "moderate"
		default:
			signals.Decisiveness = "slow"
		}
	}

	if fctx.ScrollPercent != nil {
		switch {
		case *fctx.ScrollPercent > 80:
			signals.Consumption = "complete"
		case *fctx.ScrollPercent > 50:
			signals.Consumption = "partial"
		default:
			signals.Consumption = "minimal"
		}
	}

	return signals
}

func shardIndex(key bufferKey, shards int) int {
	h := fnv.New32a()
	h.Write(key.userID[:])
	h.Write([]byte(key.itemType))
	return int(h.Sum32()) % shards
}
