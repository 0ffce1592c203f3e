package services

import (
	"context"
	"time"

	"claims-service/internal/models"
	"claims-service/internal/repository"

	"github.com/google/uuid"
)

// DashboardService serves aggregate claim figures per country.
type DashboardService struct {
	dashboard *repository.DashboardRepository
}

func NewDashboardService(dashboard *repository.DashboardRepository) *DashboardService {
	return &DashboardService{dashboard: dashboard}
}

// GetSummary aggregates over [startDate, endDate]; a zero range defaults to
// the trailing twelve months.
func (s *DashboardService) GetSummary(ctx context.Context, countryID uuid.UUID, startDate, endDate time.Time) (*models.DashboardSummary, error) {
	if endDate.IsZero() {
		endDate = time.Now().UTC()
	}
	if startDate.IsZero() {
		startDate = endDate.AddDate(-1, 0, 0)
	}
	return s.dashboard.GetSummary(ctx, countryID, startDate, endDate)
}
