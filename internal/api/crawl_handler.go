package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/job"
	"github.com/jonesrussell/roster/internal/service"
)

const maxHistoryLimit = 100

// CrawlRunner defines the job operations needed by the handler.
type CrawlRunner interface {
	Start(ctx context.Context, triggeredBy string) (domain.CrawlRun, error)
	RunSync(ctx context.Context, triggeredBy string) (domain.CrawlRun, error)
	Status() job.Status
	GetRun(ctx context.Context, id string) (domain.CrawlRun, error)
	History(ctx context.Context, limit int) ([]domain.CrawlRun, error)
}

// CrawlHandler triggers the extraction job and reports on its runs.
type CrawlHandler struct {
	runner       CrawlRunner
	historyLimit int
	log          logger.Logger
}

// NewCrawlHandler creates a new crawl handler. historyLimit is the default size of the run list.
func NewCrawlHandler(runner CrawlRunner, historyLimit int, log logger.Logger) *CrawlHandler {
	return &CrawlHandler{runner: runner, historyLimit: historyLimit, log: log}
}

// Trigger handles POST /api/v1/crawl. The run starts in the background and 202 is returned
// with its id; with ?wait=true the request blocks until the run finishes.
func (h *CrawlHandler) Trigger(c *gin.Context) {
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		h.triggerAndWait(c)
		return
	}

	run, err := h.runner.Start(c.Request.Context(), job.TriggerAPI)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Location", "/api/v1/crawl/runs/"+run.ID)
	c.JSON(http.StatusAccepted, run)
}

// triggerAndWait reports a fatal run error as 502: the run itself was recorded, but the
// source page could not be processed.
func (h *CrawlHandler) triggerAndWait(c *gin.Context) {
	run, err := h.runner.RunSync(c.Request.Context(), job.TriggerAPI)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, run)
	case run.State == domain.StateFailed:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "run": run})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusAccepted, run)
	default:
		respondError(c, h.log, err)
	}
}

// Status handles GET /api/v1/crawl/status.
func (h *CrawlHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.runner.Status())
}

// ListRuns handles GET /api/v1/crawl/runs?limit=.
func (h *CrawlHandler) ListRuns(c *gin.Context) {
	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	runs, err := h.runner.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun handles GET /api/v1/crawl/runs/:id.
func (h *CrawlHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, h.log, fmt.Errorf("%w: run id must be a UUID", service.ErrInvalidQuery))
		return
	}

	run, err := h.runner.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
