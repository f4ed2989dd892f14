package health

import (
	"calsync/core/utils"

	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for health checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the health route.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
}

// HandleHealth reports the state of the source, destination, history and archive.
// @Summary Health
// @Description Checks that the CalDAV source and Google destination answer, that the history schema is complete and that the archive bucket exists. Results are cached for a short time.
// @Tags health
// @Produce json
// @Param refresh query boolean false "Bypass the cached report"
// @Success 200 {object} Report "All Checks Passed"
// @Failure 503 {object} Report "At Least One Check Failed"
// @Router /health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	if refresh, _ := utils.ParseBool(c.Query("refresh"), false); refresh {
		h.service.Invalidate()
	}

	report := h.service.Check(c.Context())
	if !report.Healthy() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}
