package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"claims-service/internal/services"
	"claims-service/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	importService    *services.ImportService
}

func NewDashboardHandler(dashboardService *services.DashboardService, importService *services.ImportService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		importService:    importService,
	}
}

func (h *DashboardHandler) Register(app *fiber.App) {
	protectedGr := app.Group("claims/protected/api/v1")
	protectedGr.Get("/dashboard/summary", h.GetSummary) // GET /dashboard/summary
}

// GetSummary aggregates claim volumes for the caller's country. The
// optional start_date and end_date query parameters are ISO dates.
func (h *DashboardHandler) GetSummary(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	countryName := c.Get("X-User-Country")
	if userID == "" || countryName == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID and country are required"))
	}

	country, err := h.importService.ResolveCountry(c.Context(), countryName)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", err.Error()))
	}

	var startDate, endDate time.Time
	if raw := c.Query("start_date"); raw != "" {
		if startDate, err = time.Parse("2006-01-02", raw); err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_DATE", "start_date must be YYYY-MM-DD"))
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if endDate, err = time.Parse("2006-01-02", raw); err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_DATE", "end_date must be YYYY-MM-DD"))
		}
	}

	summary, err := h.dashboardService.GetSummary(c.Context(), country.ID, startDate, endDate)
	if err != nil {
		slog.Error("Failed to build dashboard summary", "country_id", country.ID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to build dashboard summary"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"summary": summary,
		"country": country.Name,
	}))
}
