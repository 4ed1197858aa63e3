package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/pkg/models"
)

func testBanditConfig() *config.BanditConfig {
	return &config.BanditConfig{
		Window:            720 * time.Hour,
		MinInteractions:   3,
		ExplorationCredit: 0.15,
	}
}

func TestBanditService_Rank(t *testing.T) {
	log := &mockFeedbackLog{}
	log.On("QueryItemStats", mock.Anything, mock.Anything, mock.Anything).Return(map[string]models.ItemStats{
		"a": {ItemID: "a", TotalInteractions: 10, PositiveInteractions: 8},
		"b": {ItemID: "b", TotalInteractions: 5, PositiveInteractions: 2},
		"c": {ItemID: "c", TotalInteractions: 1, PositiveInteractions: 1},
	}, nil)

	service := NewBanditService(log, testBanditConfig(), testLogger())

	arms, err := service.Rank(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	require.Len(t, arms, 4)

	byItem := make(map[string]models.BanditArm)
	for _, arm := range arms {
		byItem[arm.ItemID] = arm
	}

	// Two arms qualify, so N=2 in the exploration bonus.
	a := byItem["a"]
	assert.True(t, a.Computed)
	assert.InDelta(t, 0.8, a.SuccessRate, 0.0001)
	assert.InDelta(t, math.Sqrt(2*math.Log(2)/10), a.ExplorationBonus, 0.0001)
	assert.InDelta(t, a.SuccessRate+a.ExplorationBonus, a.UCB1Score, 0.0001)

	b := byItem["b"]
	assert.True(t, b.Computed)
	assert.InDelta(t, 0.4, b.SuccessRate, 0.0001)
	assert.InDelta(t, math.Sqrt(2*math.Log(2)/5), b.ExplorationBonus, 0.0001)

	// Below the qualification minimum and entirely unseen both carry the
	// fixed exploration credit.
	assert.False(t, byItem["c"].Computed)
	assert.InDelta(t, 0.15, byItem["c"].UCB1Score, 0.0001)
	assert.False(t, byItem["d"].Computed)
	assert.InDelta(t, 0.15, byItem["d"].UCB1Score, 0.0001)

	// Output sorted descending
	for i := 1; i < len(arms); i++ {
		assert.GreaterOrEqual(t, arms[i-1].UCB1Score, arms[i].UCB1Score)
	}
	assert.Equal(t, "a", arms[0].ItemID)
}

func TestBanditService_Rank_SuccessRateMonotonicity(t *testing.T) {
	rank := func(positives int) float64 {
		log := &mockFeedbackLog{}
		log.On("QueryItemStats", mock.Anything, mock.Anything, mock.Anything).Return(map[string]models.ItemStats{
			"a": {ItemID: "a", TotalInteractions: 10, PositiveInteractions: positives},
			"b": {ItemID: "b", TotalInteractions: 10, PositiveInteractions: 5},
		}, nil)

		service := NewBanditService(log, testBanditConfig(), testLogger())
		arms, err := service.Rank(context.Background(), []string{"a", "b"})
		require.NoError(t, err)

		for _, arm := range arms {
			if arm.ItemID == "a" {
				return arm.UCB1Score
			}
		}
		t.Fatal("arm a missing")
		return 0
	}

	previous := rank(0)
	for positives := 1; positives <= 10; positives++ {
		current := rank(positives)
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
}
