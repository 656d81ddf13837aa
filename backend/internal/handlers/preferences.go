package handlers

import (
	"net/http"

	"patas-conectadas/backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PreferenceHandler struct {
	preferences services.PreferenceService
	log         *zap.Logger
}

func NewPreferenceHandler(preferences services.PreferenceService, log *zap.Logger) *PreferenceHandler {
	RegisterValidators()
	return &PreferenceHandler{preferences: preferences, log: log}
}

func (h *PreferenceHandler) Register(r gin.IRouter) {
	r.POST("/volunteers/:id/preferences", h.CreatePreferences)
	r.GET("/volunteers/:id/preferences", h.ListPreferences)
	r.DELETE("/volunteers/:id/preferences/:prefId", h.DeletePreference)
}

type createPreferencesRequest struct {
	Preferences []string `json:"preferences"`
}

func (h *PreferenceHandler) CreatePreferences(c *gin.Context) {
	volunteerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	prefs, err := h.preferences.AddPreferences(c.Request.Context(), volunteerID, req.Preferences)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, prefs)
}

func (h *PreferenceHandler) ListPreferences(c *gin.Context) {
	volunteerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	prefs, err := h.preferences.ListPreferences(c.Request.Context(), volunteerID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *PreferenceHandler) DeletePreference(c *gin.Context) {
	volunteerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	prefID, ok := pathID(c, "prefId")
	if !ok {
		return
	}
	if err := h.preferences.DeletePreference(c.Request.Context(), volunteerID, prefID); err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
