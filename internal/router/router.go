package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetracker/internal/handler"
	"timetracker/internal/middleware"
)

func New(
	sessionHandler *handler.SessionHandler,
	entryHandler *handler.EntryHandler,
	summaryHandler *handler.SummaryHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	sessions := api.Group("/sessions")
	sessions.POST("/start", sessionHandler.Start)
	sessions.POST("/stop", sessionHandler.Stop)
	sessions.POST("/cancel", sessionHandler.Cancel)
	sessions.GET("/active", sessionHandler.Active)
	sessions.GET("", sessionHandler.List)
	sessions.PUT("/:id", sessionHandler.Update)
	sessions.DELETE("/:id", sessionHandler.Delete)

	entries := api.Group("/entries")
	entries.POST("", entryHandler.Create)
	entries.GET("", entryHandler.List)
	entries.PUT("/:id", entryHandler.Update)
	entries.DELETE("/:id", entryHandler.Delete)

	api.GET("/summary", summaryHandler.Daily)
	api.GET("/projects", summaryHandler.Projects)

	return engine
}
