package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/services"
	"github.com/roamly/traveldna/internal/validation"
	"github.com/roamly/traveldna/pkg/models"
)

type ProfileHandler struct {
	profiles  *services.ProfileService
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewProfileHandler(profiles *services.ProfileService, validator *validation.SchemaValidator, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles:  profiles,
		validator: validator,
		logger:    logger,
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "PROFILE_NOT_FOUND",
					"message": "No travel profile exists for this user",
				},
			})
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "PROFILE_LOAD_FAILED",
				"message": "Failed to load profile",
			},
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SubmitQuiz bootstraps a profile from the onboarding questionnaire.
func (h *ProfileHandler) SubmitQuiz(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

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

	if result := h.validator.ValidateQuiz(body); !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Quiz payload failed schema validation",
				"details": result.Errors,
			},
		})
		return
	}

	var responses models.QuizResponses
	if err := json.Unmarshal(body, &responses); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_BODY",
				"message": "Failed to parse quiz responses",
			},
		})
		return
	}

	profile, err := h.profiles.CreateFromQuiz(c.Request.Context(), userID, &responses)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to create profile from quiz")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "PROFILE_CREATE_FAILED",
				"message": "Failed to create profile",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, profile)
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user ID format",
			},
		})
		return uuid.Nil, false
	}
	return userID, true
}
