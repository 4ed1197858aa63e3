package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/services"
	"github.com/roamly/traveldna/pkg/models"
)

type RecommendationHandler struct {
	ranker        services.RankerInterface
	collaborative *services.CollaborativeService
	logger        *logrus.Logger
}

func NewRecommendationHandler(
	ranker services.RankerInterface,
	collaborative *services.CollaborativeService,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		ranker:        ranker,
		collaborative: collaborative,
		logger:        logger,
	}
}

// Rank is the general-purpose fusion ranking over a caller-supplied
// candidate set.
func (h *RecommendationHandler) Rank(c *gin.Context) {
	userID, req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	response := h.ranker.GetPersonalizedRanking(c.Request.Context(), userID, req.Candidates, req.Context)
	truncate(response, req.Count)
	c.JSON(http.StatusOK, response)
}

// RankByMode serves the three named strategies: nearby, personalized, and
// hidden_gems.
func (h *RecommendationHandler) RankByMode(c *gin.Context) {
	userID, req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = models.ModeNearby
	}

	response := h.ranker.GetRecommendations(c.Request.Context(), userID, req.Candidates, req.Context, mode)
	truncate(response, req.Count)
	c.JSON(http.StatusOK, response)
}

// Collaborative scores the candidate set from collaborative signals only.
// Users without enough history get the popularity fallback.
func (h *RecommendationHandler) Collaborative(c *gin.Context) {
	userID, req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	response := &models.RecommendationResponse{
		UserID:      userID,
		Results:     h.collaborative.Recommend(c.Request.Context(), userID, req.Candidates),
		GeneratedAt: time.Now(),
	}
	truncate(response, req.Count)
	c.JSON(http.StatusOK, response)
}

func (h *RecommendationHandler) parseRequest(c *gin.Context) (uuid.UUID, *models.RecommendationRequest, bool) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user ID format",
			},
		})
		return uuid.Nil, nil, false
	}

	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return uuid.Nil, nil, false
	}

	return userID, &req, true
}

func truncate(response *models.RecommendationResponse, count int) {
	if count > 0 && len(response.Results) > count {
		response.Results = response.Results[:count]
	}
}
