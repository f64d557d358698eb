package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timetracker/internal/duration"
	"timetracker/internal/service"
)

type SessionHandler struct {
	tracker *service.TrackerService
}

func NewSessionHandler(tracker *service.TrackerService) *SessionHandler {
	return &SessionHandler{tracker: tracker}
}

type startSessionRequest struct {
	TaskName *string `json:"taskName"`
	Project  *string `json:"project"`
}

type updateSessionRequest struct {
	TaskName *string `json:"taskName"`
	Project  *string `json:"project"`
	Notes    *string `json:"notes"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	// The body is optional; an empty one reads as io.EOF. Chunked
	// requests report ContentLength -1, so bind unconditionally.
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidJSON(c)
		return
	}

	session, apiErr := h.tracker.StartSession(c.Request.Context(), req.TaskName, req.Project)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *SessionHandler) Stop(c *gin.Context) {
	session, apiErr := h.tracker.StopSession(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	session, apiErr := h.tracker.CancelSession(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true, "session": session})
}

func (h *SessionHandler) Active(c *gin.Context) {
	session, apiErr := h.tracker.ActiveSession(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	elapsed := session.ElapsedSeconds(time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{
		"active":           true,
		"session":          session,
		"elapsed":          elapsed,
		"elapsedFormatted": duration.FormatClock(elapsed),
	})
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, apiErr := h.tracker.SessionsByDate(c.Request.Context(), dateQuery(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	session, apiErr := h.tracker.UpdateSession(c.Request.Context(), id, service.UpdateSessionInput{
		TaskName: req.TaskName,
		Project:  req.Project,
		Notes:    req.Notes,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if apiErr := h.tracker.DeleteSession(c.Request.Context(), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
