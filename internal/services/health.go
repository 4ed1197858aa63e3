package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/database"
)

// HealthService reports dependency health. Postgres is critical; the graph
// and the cache degrade gracefully, so they only mark the service degraded.
type HealthService struct {
	db     *database.Database
	logger *logrus.Logger
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewHealthService(db *database.Database, logger *logrus.Logger) *HealthService {
	return &HealthService{db: db, logger: logger}
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	healthy := true
	degraded := false

	if err := s.db.PG.Ping(checkCtx); err != nil {
		s.logger.WithError(err).Error("PostgreSQL health check failed")
		status.Services["postgresql"] = "unhealthy"
		healthy = false
	} else {
		status.Services["postgresql"] = "healthy"
	}

	if err := s.db.Neo4j.VerifyConnectivity(checkCtx); err != nil {
		s.logger.WithError(err).Warn("Neo4j health check failed")
		status.Services["neo4j"] = "unhealthy"
		degraded = true
	} else {
		status.Services["neo4j"] = "healthy"
	}

	if err := s.db.Redis.Ping(checkCtx).Err(); err != nil {
		s.logger.WithError(err).Warn("Redis health check failed")
		status.Services["redis"] = "unhealthy"
		degraded = true
	} else {
		status.Services["redis"] = "healthy"
	}

	switch {
	case !healthy:
		status.Status = "unhealthy"
	case degraded:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	return status
}
