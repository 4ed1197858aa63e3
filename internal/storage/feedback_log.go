package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/pkg/models"
)

// FeedbackLogStore is the append-only Postgres log of feedback events.
// Events are never mutated after insert.
type FeedbackLogStore struct {
	db     Querier
	logger *logrus.Logger
}

func NewFeedbackLogStore(db Querier, logger *logrus.Logger) *FeedbackLogStore {
	return &FeedbackLogStore{db: db, logger: logger}
}

func (s *FeedbackLogStore) Append(ctx context.Context, event *models.FeedbackEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	query := `
		INSERT INTO user_feedback (
			id, user_id, item_id, item_type, kind, rating, category,
			context, implicit_signals, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.ItemID,
		event.ItemType,
		event.Kind,
		event.Rating,
		event.Category,
		event.Context,
		event.ImplicitSignals,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append feedback event: %w", err)
	}

	return nil
}

func (s *FeedbackLogStore) QueryByUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.FeedbackEvent, error) {
	query := `
		SELECT id, user_id, item_id, item_type, kind, rating, category,
			context, implicit_signals, created_at
		FROM user_feedback
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback by user: %w", err)
	}
	defer rows.Close()

	var events []models.FeedbackEvent
	for rows.Next() {
		var event models.FeedbackEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.ItemID,
			&event.ItemType,
			&event.Kind,
			&event.Rating,
			&event.Category,
			&event.Context,
			&event.ImplicitSignals,
			&event.Timestamp,
		); err != nil {
			s.logger.WithError(err).Warn("Failed to scan feedback event, skipping")
			continue
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (s *FeedbackLogStore) QueryItemStats(ctx context.Context, itemIDs []string, since time.Time) (map[string]models.ItemStats, error) {
	query := `
		SELECT item_id,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE kind IN ('like', 'save', 'visit')) AS positive
		FROM user_feedback
		WHERE item_id = ANY($1) AND created_at >= $2
		GROUP BY item_id`

	rows, err := s.db.Query(ctx, query, itemIDs, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]models.ItemStats)
	for rows.Next() {
		var st models.ItemStats
		if err := rows.Scan(&st.ItemID, &st.TotalInteractions, &st.PositiveInteractions); err != nil {
			s.logger.WithError(err).Warn("Failed to scan item stats row, skipping")
			continue
		}
		stats[st.ItemID] = st
	}

	return stats, rows.Err()
}

func (s *FeedbackLogStore) RecentActiveUsers(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_feedback
		WHERE created_at >= $1
		GROUP BY user_id
		ORDER BY MAX(created_at) DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent active users: %w", err)
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			continue
		}
		users = append(users, id)
	}

	return users, rows.Err()
}
