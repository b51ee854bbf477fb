package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/siplan/siplan-skills/internal/api/metrics"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// Enqueuer is the dispatcher-facing side of the progress pipeline.
type Enqueuer interface {
	Enqueue(event ports.CompletionEvent)
}

// ProgressHandler accepts completion toggles (fire-and-forget through the
// dispatcher) and serves progress summaries.
type ProgressHandler struct {
	queue    Enqueuer
	progress ports.ProgressService
}

func NewProgressHandler(queue Enqueuer, progress ports.ProgressService) *ProgressHandler {
	return &ProgressHandler{queue: queue, progress: progress}
}

type completionRequest struct {
	Completed bool `json:"completed"`
}

// ToggleLesson marks or unmarks a lesson as completed for the calling
// tenant user.
//
// @Summary      Toggle lesson completion
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        X-Session-Token  header  string             true  "Signed session token"
// @Param        lessonID         path    string             true  "Lesson ID"
// @Param        body             body    completionRequest  true  "Completion state"
// @Success      202  "accepted"
// @Failure      401  {object}  map[string]string
// @Router       /functions/progress/lessons/{lessonID} [put]
func (h *ProgressHandler) ToggleLesson(c echo.Context) error {
	cartorioID, userID, err := tenantScope(c)
	if err != nil {
		return err
	}

	var req completionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	state := "uncompleted"
	if req.Completed {
		state = "completed"
	}
	metrics.CompletionEventsTotal.WithLabelValues(state).Inc()

	h.queue.Enqueue(ports.CompletionEvent{
		CartorioID:    cartorioID,
		UserID:        userID,
		VideoLessonID: c.Param("lessonID"),
		Completed:     req.Completed,
		Timestamp:     time.Now().UTC(),
	})
	return c.NoContent(http.StatusAccepted)
}

// Summary returns per-product and per-system completion percentages for the
// calling tenant user.
//
// @Summary      Progress summary
// @Tags         functions
// @Produce      json
// @Param        X-Session-Token  header    string  true  "Signed session token"
// @Success      200  {object}  ports.ProgressSummary
// @Failure      401  {object}  map[string]string
// @Router       /functions/progress/summary [get]
func (h *ProgressHandler) Summary(c echo.Context) error {
	cartorioID, userID, err := tenantScope(c)
	if err != nil {
		return err
	}

	out, err := h.progress.Summary(c.Request().Context(), cartorioID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
