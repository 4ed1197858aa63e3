package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/pkg/models"
)

// InteractionGraphStore keeps the user/POI interaction graph in Neo4j and
// serves the aggregate queries collaborative filtering needs. The numeric
// interaction score is stored on the FEEDBACK relationship so neighborhood
// queries never re-derive it.
type InteractionGraphStore struct {
	driver neo4j.DriverWithContext
	logger *logrus.Logger
}

func NewInteractionGraphStore(driver neo4j.DriverWithContext, logger *logrus.Logger) *InteractionGraphStore {
	return &InteractionGraphStore{driver: driver, logger: logger}
}

func (s *InteractionGraphStore) RecordFeedback(ctx context.Context, event *models.FeedbackEvent, score float64, positive bool) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {user_id: $userId})
		MERGE (p:POI {poi_id: $itemId})
		ON CREATE SET p.category = $category
		CREATE (u)-[:FEEDBACK {
			kind: $kind,
			score: $score,
			positive: $positive,
			ts: $ts
		}]->(p)`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"userId":   event.UserID.String(),
		"itemId":   event.ItemID,
		"category": event.Category,
		"kind":     string(event.Kind),
		"score":    score,
		"positive": positive,
		"ts":       event.Timestamp.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to record feedback in graph: %w", err)
	}

	return nil
}

// InteractionVectors returns, for every other user who interacted with any
// of the given items inside the lookback window, that user's full
// item-score vector. Scores are averaged when a user has multiple events on
// the same item.
func (s *InteractionGraphStore) InteractionVectors(ctx context.Context, userID uuid.UUID, itemIDs []string, since time.Time) (map[uuid.UUID]map[string]float64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u2:User)-[f:FEEDBACK]->(p:POI)
		WHERE p.poi_id IN $itemIds AND u2.user_id <> $userId AND f.ts >= $since
		WITH DISTINCT u2
		MATCH (u2)-[f2:FEEDBACK]->(q:POI)
		WHERE f2.ts >= $since
		RETURN u2.user_id AS user_id, q.poi_id AS item_id, avg(f2.score) AS score`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userId":  userID.String(),
		"itemIds": itemIDs,
		"since":   since.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction vectors: %w", err)
	}

	vectors := make(map[uuid.UUID]map[string]float64)
	for result.Next(ctx) {
		record := result.Record()
		userIDStr, _ := record.Values[0].(string)
		itemID, _ := record.Values[1].(string)
		score, _ := record.Values[2].(float64)

		otherID, err := uuid.Parse(userIDStr)
		if err != nil {
			continue
		}

		if vectors[otherID] == nil {
			vectors[otherID] = make(map[string]float64)
		}
		vectors[otherID][itemID] = score
	}

	return vectors, result.Err()
}

// PositiveItems returns the items a user positively interacted with inside
// the window, keyed by item ID with the strongest score.
func (s *InteractionGraphStore) PositiveItems(ctx context.Context, userID uuid.UUID, since time.Time) (map[string]float64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $userId})-[f:FEEDBACK]->(p:POI)
		WHERE f.positive AND f.ts >= $since
		RETURN p.poi_id AS item_id, max(f.score) AS score`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userId": userID.String(),
		"since":  since.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query positive items: %w", err)
	}

	items := make(map[string]float64)
	for result.Next(ctx) {
		record := result.Record()
		itemID, _ := record.Values[0].(string)
		score, _ := record.Values[1].(float64)
		items[itemID] = score
	}

	return items, result.Err()
}

// CoOccurrence finds POIs that users who positively rated the seed POI also
// positively rated. AvgPositiveRate is the mean relationship score
// normalized into [0,1].
func (s *InteractionGraphStore) CoOccurrence(ctx context.Context, itemID string, minCount int, since time.Time) ([]models.CoOccurrence, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (seed:POI {poi_id: $itemId})<-[f1:FEEDBACK]-(u:User)-[f2:FEEDBACK]->(other:POI)
		WHERE f1.positive AND f2.positive AND other <> seed
			AND f1.ts >= $since AND f2.ts >= $since
		WITH other, count(DISTINCT u) AS cnt, avg(f2.score) AS avg_score
		WHERE cnt >= $minCount
		RETURN other.poi_id AS item_id, cnt AS count, avg_score / 5.0 AS avg_positive_rate
		ORDER BY cnt DESC
		LIMIT 100`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"itemId":   itemID,
		"minCount": minCount,
		"since":    since.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query co-occurrence: %w", err)
	}

	var neighbors []models.CoOccurrence
	for result.Next(ctx) {
		record := result.Record()
		co := models.CoOccurrence{}
		co.ItemID, _ = record.Values[0].(string)
		if count, ok := record.Values[1].(int64); ok {
			co.Count = int(count)
		}
		co.AvgPositiveRate, _ = record.Values[2].(float64)
		neighbors = append(neighbors, co)
	}

	return neighbors, result.Err()
}
