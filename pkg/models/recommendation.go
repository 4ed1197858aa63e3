package models

import (
	"time"

	"github.com/google/uuid"
)

// RankingMode selects the scoring strategy for a recommendation request.
type RankingMode string

const (
	ModeNearby       RankingMode = "nearby"
	ModePersonalized RankingMode = "personalized"
	ModeHiddenGems   RankingMode = "hidden_gems"
)

// Recommendation sources.
const (
	SourceCollaborative   = "collaborative"
	SourceBandit          = "bandit"
	SourceProfile         = "profile"
	SourceFallbackPopular = "fallback_popular"
)

// RankingContext is the situational context for a ranking request.
type RankingContext struct {
	TimeOfDay string    `json:"time_of_day,omitempty"`
	Weather   string    `json:"weather,omitempty"`
	Mood      string    `json:"mood,omitempty"`
	Origin    *GeoPoint `json:"origin,omitempty"`
}

// ScoredCandidate is a ranked POI with its score decomposition.
type ScoredCandidate struct {
	POI        CandidatePOI       `json:"poi"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components,omitempty"`
	Source     string             `json:"source"`
	Position   int                `json:"position"`
}

// RecommendationRequest is the inbound payload for a ranking request. The
// caller supplies the candidate set (typically from the POI provider).
type RecommendationRequest struct {
	Candidates []CandidatePOI `json:"candidates" binding:"required,min=1"`
	Context    RankingContext `json:"context"`
	Mode       RankingMode    `json:"mode" binding:"omitempty,oneof=nearby personalized hidden_gems"`
	Count      int            `json:"count" binding:"omitempty,min=1,max=100"`
}

// RecommendationResponse is the ranked output for one user.
type RecommendationResponse struct {
	UserID      uuid.UUID         `json:"user_id"`
	Mode        RankingMode       `json:"mode,omitempty"`
	Results     []ScoredCandidate `json:"results"`
	Degraded    bool              `json:"degraded"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// SimilarUser is a collaborative-filtering neighbor.
type SimilarUser struct {
	UserID      uuid.UUID `json:"user_id"`
	Similarity  float64   `json:"similarity"`
	CommonItems int       `json:"common_items"`
}

// BanditArm holds UCB1 statistics for one item over the rolling window. A
// computed arm requires at least the qualification minimum of interactions;
// otherwise the arm carries the fixed exploration credit and Computed is
// false.
type BanditArm struct {
	ItemID               string  `json:"item_id"`
	TotalInteractions    int     `json:"total_interactions"`
	PositiveInteractions int     `json:"positive_interactions"`
	SuccessRate          float64 `json:"success_rate"`
	ExplorationBonus     float64 `json:"exploration_bonus"`
	UCB1Score            float64 `json:"ucb1_score"`
	Computed             bool    `json:"computed"`
}

// NotificationEvaluation is the notification gate's verdict for a candidate.
type NotificationEvaluation struct {
	UserID    uuid.UUID `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Score     float64   `json:"score"`
	Threshold float64   `json:"threshold"`
	Notify    bool      `json:"notify"`
}
