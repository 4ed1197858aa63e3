package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	logger        *logrus.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger,
	}
}

type notificationRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// Evaluate answers whether a proactive suggestion for the item is relevant
// enough to notify the user about.
func (h *NotificationHandler) Evaluate(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	evaluation, err := h.notifications.Evaluate(c.Request.Context(), userID, req.ItemID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Notification evaluation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "EVALUATION_FAILED",
				"message": "Failed to evaluate notification relevance",
			},
		})
		return
	}

	c.JSON(http.StatusOK, evaluation)
}
