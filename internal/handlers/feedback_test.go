package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roamly/traveldna/internal/validation"
	"github.com/roamly/traveldna/pkg/models"
)

type MockFeedbackRecorder struct {
	mock.Mock
}

func (m *MockFeedbackRecorder) RecordFeedback(ctx context.Context, req *models.FeedbackRequest) *models.FeedbackAck {
	args := m.Called(ctx, req)
	return args.Get(0).(*models.FeedbackAck)
}

func setupFeedbackRouter(t *testing.T, recorder *MockFeedbackRecorder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	validator, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	handler := NewFeedbackHandler(recorder, validator, logger)
	router := gin.New()
	router.POST("/api/v1/feedback", handler.Record)
	return router
}

func TestFeedbackHandler_Record(t *testing.T) {
	recorder := &MockFeedbackRecorder{}
	recorder.On("RecordFeedback", mock.Anything, mock.Anything).
		Return(&models.FeedbackAck{Accepted: true})

	router := setupFeedbackRouter(t, recorder)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id":   uuid.New().String(),
		"item_id":   "poi-1",
		"item_type": "poi",
		"kind":      "like",
		"context": map[string]interface{}{
			"time_of_day":    "evening",
			"dwell_time_sec": 42,
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var ack models.FeedbackAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.True(t, ack.Accepted)
	recorder.AssertExpectations(t)
}

func TestFeedbackHandler_Record_RejectsMalformedPayload(t *testing.T) {
	recorder := &MockFeedbackRecorder{}
	router := setupFeedbackRouter(t, recorder)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "unknown kind",
			body: map[string]interface{}{
				"user_id":   uuid.New().String(),
				"item_id":   "poi-1",
				"item_type": "poi",
				"kind":      "superlike",
			},
		},
		{
			name: "missing item id",
			body: map[string]interface{}{
				"user_id":   uuid.New().String(),
				"item_type": "poi",
				"kind":      "like",
			},
		},
		{
			name: "rating out of range",
			body: map[string]interface{}{
				"user_id":   uuid.New().String(),
				"item_id":   "poi-1",
				"item_type": "poi",
				"kind":      "like",
				"rating":    9,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// The engine never saw the malformed payloads.
	recorder.AssertNotCalled(t, "RecordFeedback", mock.Anything, mock.Anything)
}

func TestFeedbackHandler_Record_RetryLater(t *testing.T) {
	recorder := &MockFeedbackRecorder{}
	recorder.On("RecordFeedback", mock.Anything, mock.Anything).
		Return(&models.FeedbackAck{Accepted: true, RetryLater: true})

	router := setupFeedbackRouter(t, recorder)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id":   uuid.New().String(),
		"item_id":   "poi-1",
		"item_type": "poi",
		"kind":      "visit",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var ack models.FeedbackAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.True(t, ack.RetryLater)
}
