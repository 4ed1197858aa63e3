package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/services"
	"github.com/roamly/traveldna/internal/validation"
	"github.com/roamly/traveldna/pkg/models"
)

type FeedbackHandler struct {
	feedback  services.FeedbackRecorderInterface
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewFeedbackHandler(feedback services.FeedbackRecorderInterface, validator *validation.SchemaValidator, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedback:  feedback,
		validator: validator,
		logger:    logger,
	}
}

// Record accepts one feedback event. Malformed payloads are rejected here;
// once a payload passes validation the engine always acknowledges receipt.
func (h *FeedbackHandler) Record(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_BODY",
				"message": "Failed to read request body",
			},
		})
		return
	}

	if result := h.validator.ValidateFeedback(body); !result.Valid {
		h.logger.WithField("errors", result.Errors).Warn("Rejected malformed feedback payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Feedback payload failed schema validation",
				"details": result.Errors,
			},
		})
		return
	}

	var req models.FeedbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_BODY",
				"message": "Failed to parse feedback payload",
			},
		})
		return
	}

	ack := h.feedback.RecordFeedback(c.Request.Context(), &req)

	status := http.StatusAccepted
	if ack.RetryLater {
		// Received but not yet durable; the client may resend.
		status = http.StatusOK
	}
	c.JSON(status, ack)
}
