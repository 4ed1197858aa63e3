package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/pkg/models"
)

// BanditService ranks candidate items with UCB1 over a rolling interaction
// window. Items without a qualifying record carry a fixed exploration credit
// so new POIs stay discoverable.
type BanditService struct {
	log    FeedbackLog
	config *config.BanditConfig
	logger *logrus.Logger
}

func NewBanditService(log FeedbackLog, cfg *config.BanditConfig, logger *logrus.Logger) *BanditService {
	return &BanditService{log: log, config: cfg, logger: logger}
}

// Rank returns one arm per requested item, sorted descending by UCB1 score.
// N in the exploration bonus is the number of qualifying arms in this batch.
func (s *BanditService) Rank(ctx context.Context, itemIDs []string) ([]models.BanditArm, error) {
	since := time.Now().Add(-s.config.Window)

	stats, err := s.log.QueryItemStats(ctx, itemIDs, since)
	if err != nil {
		return nil, err
	}

	qualifying := 0
	for _, st := range stats {
		if st.TotalInteractions >= s.config.MinInteractions {
			qualifying++
		}
	}

	arms := make([]models.BanditArm, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		arm := models.BanditArm{ItemID: itemID}

		st, ok := stats[itemID]
		if ok && st.TotalInteractions >= s.config.MinInteractions {
			arm.TotalInteractions = st.TotalInteractions
			arm.PositiveInteractions = st.PositiveInteractions
			arm.SuccessRate = float64(st.PositiveInteractions) / float64(st.TotalInteractions)
			arm.ExplorationBonus = math.Sqrt(2 * math.Log(float64(qualifying)) / float64(st.TotalInteractions))
			arm.UCB1Score = arm.SuccessRate + arm.ExplorationBonus
			arm.Computed = true
		} else {
			arm.UCB1Score = s.config.ExplorationCredit
		}

		arms = append(arms, arm)
	}

	sort.Slice(arms, func(i, j int) bool { return arms[i].UCB1Score > arms[j].UCB1Score })

	return arms, nil
}
