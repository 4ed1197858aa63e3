package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/services"
	"github.com/roamly/traveldna/internal/validation"
)

type Handlers struct {
	Health         *HealthHandler
	Feedback       *FeedbackHandler
	Recommendation *RecommendationHandler
	Profile        *ProfileHandler
	Notification   *NotificationHandler
}

func New(logger *logrus.Logger, services *services.Services, validator *validation.SchemaValidator) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Feedback:       NewFeedbackHandler(services.Feedback, validator, logger),
		Recommendation: NewRecommendationHandler(services.Ranker, services.Collaborative, logger),
		Profile:        NewProfileHandler(services.Profile, validator, logger),
		Notification:   NewNotificationHandler(services.Notification, logger),
	}
}
