package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetracker/internal/service"
)

type SummaryHandler struct {
	tracker *service.TrackerService
}

func NewSummaryHandler(tracker *service.TrackerService) *SummaryHandler {
	return &SummaryHandler{tracker: tracker}
}

func (h *SummaryHandler) Daily(c *gin.Context) {
	summary, apiErr := h.tracker.DailySummary(c.Request.Context(), dateQuery(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *SummaryHandler) Projects(c *gin.Context) {
	projects, apiErr := h.tracker.Projects(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}
