package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetracker/internal/service"
)

type EntryHandler struct {
	tracker *service.TrackerService
}

func NewEntryHandler(tracker *service.TrackerService) *EntryHandler {
	return &EntryHandler{tracker: tracker}
}

type addEntryRequest struct {
	TaskName string  `json:"taskName"`
	Duration string  `json:"duration"`
	Project  *string `json:"project"`
	Notes    *string `json:"notes"`
	Date     *string `json:"date"`
}

type updateEntryRequest struct {
	TaskName *string `json:"taskName"`
	Duration *string `json:"duration"`
	Date     *string `json:"date"`
	Project  *string `json:"project"`
	Notes    *string `json:"notes"`
}

func (h *EntryHandler) Create(c *gin.Context) {
	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	entry, apiErr := h.tracker.AddManualEntry(c.Request.Context(), service.AddEntryInput{
		TaskName: req.TaskName,
		Duration: req.Duration,
		Project:  req.Project,
		Notes:    req.Notes,
		Date:     req.Date,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

func (h *EntryHandler) List(c *gin.Context) {
	entries, apiErr := h.tracker.EntriesByDate(c.Request.Context(), dateQuery(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *EntryHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	entry, apiErr := h.tracker.UpdateEntry(c.Request.Context(), id, service.UpdateEntryInput{
		TaskName: req.TaskName,
		Duration: req.Duration,
		Date:     req.Date,
		Project:  req.Project,
		Notes:    req.Notes,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (h *EntryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if apiErr := h.tracker.DeleteEntry(c.Request.Context(), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
