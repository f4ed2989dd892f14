package calendar

import (
	"errors"

	"calsync/core/logger"
	"calsync/core/reconcile"
	"calsync/core/utils"
	"calsync/feature/calendar/history"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RunResponse wraps a run result that ended with a fatal error.
type RunResponse struct {
	Error  string                `json:"error"`
	Result *reconcile.SyncResult `json:"result,omitempty"`
}

// RunView is one recorded run as returned by the API.
type RunView struct {
	history.SyncRun
	Errors []string `json:"errors"`
}

// LinksResponse lists the destination links within a window.
type LinksResponse struct {
	Window reconcile.Window `json:"window"`
	Count  int              `json:"count"`
	Links  []reconcile.Link `json:"links"`
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/run", h.HandleRun)
	group.Get("/runs", h.HandleRuns)
	group.Get("/links", h.HandleLinks)
}

// HandleRun triggers one reconciliation run.
// @Summary Run Sync
// @Description Reconciles the CalDAV source into the Google calendar. Partial failures are reported in the result with status 200.
// @Tags sync
// @Produce json
// @Param window_days query int false "Days after today covered by the run"
// @Param dry_run query boolean false "Compute decisions without changing the destination"
// @Param filter query string false "Only sync events whose summary, description or location contains this text"
// @Success 200 {object} reconcile.SyncResult "Run Result"
// @Failure 400 {object} map[string]string "Invalid Parameters"
// @Failure 409 {object} map[string]string "Run In Progress"
// @Failure 502 {object} RunResponse "Source Or Destination Unavailable"
// @Router /sync/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	cfg := h.service.Config()

	days, err := utils.ParseInt(c.Query("window_days"), cfg.WindowDays)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	dryRun, err := utils.ParseBool(c.Query("dry_run"), false)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	filter := c.Query("filter", cfg.Filter)

	l.Info("Triggering sync run", zap.Int("window_days", days), zap.Bool("dry_run", dryRun), zap.String("filter", filter))

	result, err := h.service.Trigger(c.Context(), RunRequest{
		WindowDays: days,
		DryRun:     dryRun,
		Filter:     filter,
		Trigger:    TriggerAPI,
	})
	switch {
	case errors.Is(err, ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, reconcile.ErrInvalidWindow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Sync run failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(RunResponse{Error: err.Error(), Result: result})
	}

	return c.JSON(result)
}

// HandleRuns lists recorded runs.
// @Summary List Runs
// @Description Returns the most recent sync runs, newest first.
// @Tags sync
// @Produce json
// @Param limit query int false "Maximum number of runs (default 20)"
// @Success 200 {array} RunView "Recorded Runs"
// @Failure 503 {object} map[string]string "History Disabled"
// @Router /sync/runs [get]
func (h *Handler) HandleRuns(c *fiber.Ctx) error {
	limit, err := utils.ParseInt(c.Query("limit"), history.DefaultLimit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	runs, err := h.service.History(c.Context(), limit)
	if errors.Is(err, ErrHistoryDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing runs failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, RunView{SyncRun: run, Errors: run.ErrorList()})
	}
	return c.JSON(views)
}

// HandleLinks lists the destination events currently linked to source events.
// @Summary List Links
// @Description Returns the provenance-tagged destination events within the window.
// @Tags sync
// @Produce json
// @Param window_days query int false "Days after today to scan"
// @Success 200 {object} LinksResponse "Current Links"
// @Failure 400 {object} map[string]string "Invalid Parameters"
// @Failure 502 {object} map[string]string "Destination Unavailable"
// @Router /sync/links [get]
func (h *Handler) HandleLinks(c *fiber.Ctx) error {
	days, err := utils.ParseInt(c.Query("window_days"), h.service.Config().WindowDays)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	window, links, err := h.service.Links(c.Context(), days)
	if errors.Is(err, reconcile.ErrInvalidWindow) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing links failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(LinksResponse{Window: window, Count: len(links), Links: links})
}
