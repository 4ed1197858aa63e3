package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackKind is the explicit interaction type reported by a client.
type FeedbackKind string

const (
	FeedbackLike          FeedbackKind = "like"
	FeedbackDislike       FeedbackKind = "dislike"
	FeedbackSave          FeedbackKind = "save"
	FeedbackSkip          FeedbackKind = "skip"
	FeedbackVisit         FeedbackKind = "visit"
	FeedbackShare         FeedbackKind = "share"
	FeedbackNotInterested FeedbackKind = "not_interested"
)

// ItemType classifies the object a feedback event refers to.
type ItemType string

const (
	ItemTypePOI            ItemType = "poi"
	ItemTypeRecommendation ItemType = "recommendation"
	ItemTypeTrip           ItemType = "trip"
	ItemTypeActivity       ItemType = "activity"
)

// FeedbackContext carries the situational fields a client may attach to an
// event. All behavioral measurements are optional.
type FeedbackContext struct {
	Location        *GeoPoint `json:"location,omitempty"`
	TimeOfDay       string    `json:"time_of_day,omitempty"`
	Weather         string    `json:"weather,omitempty"`
	Mood            string    `json:"mood,omitempty"`
	SessionID       uuid.UUID `json:"session_id,omitempty"`
	DwellTimeSec    *float64  `json:"dwell_time_sec,omitempty"`
	ClickDepth      *int      `json:"click_depth,omitempty"`
	TimeToActionSec *float64  `json:"time_to_action_sec,omitempty"`
	ScrollPercent   *float64  `json:"scroll_percent,omitempty"`
}

// ImplicitSignals are behavior-derived interest proxies bucketed from the
// raw context measurements at record time.
type ImplicitSignals struct {
	Engagement   string `json:"engagement,omitempty"`   // high | medium | low
	Interest     string `json:"interest,omitempty"`     // high | medium | low
	Decisiveness string `json:"decisiveness,omitempty"` // quick | moderate | slow
	Consumption  string `json:"consumption,omitempty"`  // complete | partial | minimal
}

// FeedbackEvent is an append-only record of a single user interaction.
// Category is the canonical category of the item at event time, resolved
// when the event is recorded.
type FeedbackEvent struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	ItemID          string          `json:"item_id" db:"item_id"`
	ItemType        ItemType        `json:"item_type" db:"item_type"`
	Kind            FeedbackKind    `json:"kind" db:"kind"`
	Rating          *float64        `json:"rating,omitempty" db:"rating"`
	Category        string          `json:"category,omitempty" db:"category"`
	Context         FeedbackContext `json:"context" db:"context"`
	ImplicitSignals ImplicitSignals `json:"implicit_signals" db:"implicit_signals"`
	Timestamp       time.Time       `json:"timestamp" db:"timestamp"`
}

// FeedbackRequest is the inbound payload for recording feedback.
type FeedbackRequest struct {
	UserID   uuid.UUID       `json:"user_id" binding:"required"`
	ItemID   string          `json:"item_id" binding:"required"`
	ItemType ItemType        `json:"item_type" binding:"required,oneof=poi recommendation trip activity"`
	Kind     FeedbackKind    `json:"kind" binding:"required,feedbackkind"`
	Rating   *float64        `json:"rating,omitempty" binding:"omitempty,min=0,max=5"`
	Category string          `json:"category,omitempty"`
	Context  FeedbackContext `json:"context"`
}

// FeedbackAck is the caller-facing result of recordFeedback. Recording never
// fails the caller; RetryLater indicates the durable append did not succeed
// and the client may resend.
type FeedbackAck struct {
	Accepted            bool `json:"accepted"`
	AdaptationTriggered bool `json:"adaptation_triggered"`
	RetryLater          bool `json:"retry_later,omitempty"`
}

// ItemStats are rolling-window interaction counts for one item, used by the
// bandit policy.
type ItemStats struct {
	ItemID               string `json:"item_id"`
	TotalInteractions    int    `json:"total_interactions"`
	PositiveInteractions int    `json:"positive_interactions"`
}

// CoOccurrence describes how often another POI was positively rated by users
// who also positively rated a seed POI.
type CoOccurrence struct {
	ItemID          string  `json:"item_id"`
	Count           int     `json:"count"`
	AvgPositiveRate float64 `json:"avg_positive_rate"`
}
