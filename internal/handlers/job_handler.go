package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfsouza/patrimonio-api/internal/jobs"
)

// JobHandler exposes background worker statistics. Admin only.
type JobHandler struct {
	worker *jobs.Worker
}

func NewJobHandler(worker *jobs.Worker) *JobHandler {
	return &JobHandler{worker: worker}
}

// Stats returns the current worker statistics
func (h *JobHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.worker.GetStats()})
}
