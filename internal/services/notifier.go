package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/pkg/models"
)

// NotificationService gates proactive suggestions behind the compatibility
// primitive. A suggestion is only worth a push when the score clears the
// relevance threshold.
type NotificationService struct {
	profiles *ProfileService
	pois     POIProvider
	config   *config.NotificationConfig
	logger   *logrus.Logger
}

func NewNotificationService(profiles *ProfileService, pois POIProvider, cfg *config.NotificationConfig, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		profiles: profiles,
		pois:     pois,
		config:   cfg,
		logger:   logger,
	}
}

// Evaluate scores one candidate item for a user. A missing profile or
// unknown item yields a non-notify verdict, not an error.
func (s *NotificationService) Evaluate(ctx context.Context, userID uuid.UUID, itemID string) (*models.NotificationEvaluation, error) {
	evaluation := &models.NotificationEvaluation{
		UserID:    userID,
		ItemID:    itemID,
		Threshold: s.config.RelevanceThreshold,
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return evaluation, nil
		}
		return nil, err
	}

	pois, err := s.pois.FindByIDs(ctx, []string{itemID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item %s: %w", itemID, err)
	}
	if len(pois) == 0 {
		return evaluation, nil
	}

	compat := s.profiles.Compatibility(profile, &pois[0])
	evaluation.Score = compat.Score
	evaluation.Notify = compat.Score > s.config.RelevanceThreshold

	return evaluation, nil
}
