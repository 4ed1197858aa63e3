package models

import (
	"time"

	"github.com/google/uuid"
)

// BudgetRange is the traveler's declared spending band.
type BudgetRange string

const (
	BudgetBudget   BudgetRange = "budget"
	BudgetMidRange BudgetRange = "mid-range"
	BudgetLuxury   BudgetRange = "luxury"
	BudgetMixed    BudgetRange = "mixed"
)

// UserProfile is the learned travel preference profile ("TravelDNA") for a
// single user. All preference, label, and confidence values are bounded
// behavioral scores in [0,1]; every mutation clamps back into that range.
type UserProfile struct {
	UserID              uuid.UUID          `json:"user_id" db:"user_id"`
	CategoryPreferences map[string]float64 `json:"category_preferences" db:"category_preferences"`
	PersonaLabels       map[string]float64 `json:"persona_labels" db:"persona_labels"`
	ActivityPreferences map[string]float64 `json:"activity_preferences" db:"activity_preferences"`
	BudgetRange         BudgetRange        `json:"budget_range" db:"budget_range"`
	PreferredDistanceKm int                `json:"preferred_distance_km" db:"preferred_distance_km"`
	TransportModes      []string           `json:"transport_modes" db:"transport_modes"`
	ConfidenceScore     float64            `json:"confidence_score" db:"confidence_score"`
	LastUpdated         time.Time          `json:"last_updated" db:"last_updated"`
}

// Compatibility is the result of scoring a profile against a candidate POI.
type Compatibility struct {
	Score          float64 `json:"score"`
	CategoryWeight float64 `json:"category_weight"`
	BudgetMatch    bool    `json:"budget_match"`
	DistanceOK     bool    `json:"distance_ok"`
}

// QuizResponses is the fixed-schema onboarding questionnaire. Importance
// answers are on a 0..5 scale.
type QuizResponses struct {
	FoodImportance      int         `json:"food_importance" binding:"min=0,max=5"`
	CultureImportance   int         `json:"culture_importance" binding:"min=0,max=5"`
	NatureImportance    int         `json:"nature_importance" binding:"min=0,max=5"`
	NightlifeImportance int         `json:"nightlife_importance" binding:"min=0,max=5"`
	ShoppingImportance  int         `json:"shopping_importance" binding:"min=0,max=5"`
	AdventureLevel      int         `json:"adventure_level" binding:"min=0,max=5"`
	BudgetRange         BudgetRange `json:"budget_range"`
	PreferredDistanceKm int         `json:"preferred_distance_km"`
	TransportModes      []string    `json:"transport_modes"`
}
