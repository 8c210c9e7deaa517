package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/haatos/shipci/internal/gitops"
	"github.com/haatos/shipci/internal/service"
	"github.com/haatos/shipci/internal/store"
	"github.com/labstack/echo/v4"
)

const maxRunsPerPage int64 = 10

type RunServicer interface {
	CreateRun(ctx context.Context, branch, commitHash, commitMessage string, skipCI bool) (*store.Run, error)
	GetRunByID(ctx context.Context, id int64) (*store.Run, error)
	ListRunsPaginated(ctx context.Context, limit, offset int64) ([]store.Run, error)
	CountRuns(ctx context.Context) (int64, error)
}

type RunEnqueuer interface {
	Enqueue(r *store.Run) error
	CancelRun(runID int64)
}

func SetupRunRoutes(
	g *echo.Group,
	runService RunServicer,
	queue RunEnqueuer,
	apiKeys APIKeyReader,
) {
	h := NewRunHandler(runService, queue)
	guarded := g.Group("", APIKeyMiddleware(apiKeys))
	guarded.POST("/hooks/push", h.PostPushHook)
	guarded.GET("/runs", h.GetRuns)
	guarded.GET("/runs/:run_id", h.GetRun)
	guarded.POST("/runs/:run_id/cancel", h.PostCancelRun)
}

type RunHandler struct {
	runService RunServicer
	queue      RunEnqueuer
}

func NewRunHandler(runService RunServicer, queue RunEnqueuer) *RunHandler {
	return &RunHandler{runService: runService, queue: queue}
}

// PostPushHook receives a push event and queues a pipeline run for it.
// A skip marker in the commit message is recorded on the run; the run
// is queued anyway so the checkout stage still executes.
func (h *RunHandler) PostPushHook(c echo.Context) error {
	pp := new(PushParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid push data")
	}
	if pp.Branch == "" || pp.CommitHash == "" {
		return newError(nil, http.StatusBadRequest, "branch and commit_hash are required")
	}

	commit := gitops.Commit{Branch: pp.Branch, Hash: pp.CommitHash, Message: pp.CommitMessage}
	run, err := h.runService.CreateRun(
		c.Request().Context(),
		commit.Branch, commit.Hash, commit.Message, commit.SkipRequested(),
	)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to create run")
	}

	if err := h.queue.Enqueue(run); err != nil {
		var full *service.ErrRunQueueFull
		if errors.As(err, &full) {
			return newError(err, http.StatusServiceUnavailable, "run queue is full")
		}
		return newError(err, http.StatusInternalServerError, "unable to queue run")
	}

	return c.JSON(http.StatusAccepted, run)
}

func (h *RunHandler) GetRuns(c echo.Context) error {
	lrp := new(ListRunsParams)
	if err := c.Bind(lrp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid page")
	}
	if lrp.Page < 1 {
		lrp.Page = 1
	}

	runs, err := h.runService.ListRunsPaginated(
		c.Request().Context(), maxRunsPerPage, (lrp.Page-1)*maxRunsPerPage,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusInternalServerError, "unable to list runs")
	}
	total, err := h.runService.CountRuns(c.Request().Context())
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to count runs")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"runs":  runs,
		"page":  lrp.Page,
		"total": total,
	})
}

func (h *RunHandler) GetRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid run id")
	}

	run, err := h.runService.GetRunByID(c.Request().Context(), rp.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "run not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read run")
	}

	return c.JSON(http.StatusOK, run)
}

func (h *RunHandler) PostCancelRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid run id")
	}

	if _, err := h.runService.GetRunByID(c.Request().Context(), rp.RunID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "run not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read run")
	}

	h.queue.CancelRun(rp.RunID)
	return c.NoContent(http.StatusNoContent)
}
