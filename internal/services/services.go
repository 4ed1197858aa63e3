package services

import (
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/internal/database"
	"github.com/roamly/traveldna/internal/taxonomy"
)

// Dependencies are the storage and messaging collaborators, constructed by
// the application wiring and consumed here through their interfaces.
type Dependencies struct {
	Profiles  ProfileRepository
	Log       FeedbackLog
	Graph     InteractionGraph
	POIs      POIProvider
	Cache     CacheStore
	Publisher FeedbackPublisher
	Mapper    *taxonomy.Mapper
}

type Services struct {
	Auth          *AuthService
	Health        *HealthService
	Profile       *ProfileService
	Feedback      *FeedbackService
	Collaborative *CollaborativeService
	Bandit        *BanditService
	Ranker        *RankerService
	Notification  *NotificationService
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, deps Dependencies) *Services {
	authService := NewAuthService(cfg, logger)
	healthService := NewHealthService(db, logger)

	profileService := NewProfileService(deps.Profiles, &cfg.Recommendation.Profile, logger)
	collaborativeService := NewCollaborativeService(
		deps.Log, deps.Graph, deps.Cache, &cfg.Recommendation.Collaborative, logger,
	)
	banditService := NewBanditService(deps.Log, &cfg.Recommendation.Bandit, logger)

	feedbackService := NewFeedbackService(
		deps.Log, deps.Graph, profileService, deps.Cache, deps.Publisher,
		deps.Mapper, &cfg.Recommendation.Feedback, logger,
	)

	rankerService := NewRankerService(
		profileService, collaborativeService, banditService, &cfg.Recommendation.Ranking, logger,
	)
	notificationService := NewNotificationService(
		profileService, deps.POIs, &cfg.Recommendation.Notification, logger,
	)

	return &Services{
		Auth:          authService,
		Health:        healthService,
		Profile:       profileService,
		Feedback:      feedbackService,
		Collaborative: collaborativeService,
		Bandit:        banditService,
		Ranker:        rankerService,
		Notification:  notificationService,
	}
}
