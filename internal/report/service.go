// Package report builds compost reports from persisted readings and norms.
package report

import (
	"context"
	"fmt"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
)

// Store loads the data a report is computed from.
type Store interface {
	LoadReportData(ctx context.Context, compostID int64) (domain.ReportData, error)
}

// Source produces reports. Service and the Redis cache both implement it.
type Source interface {
	Report(ctx context.Context, compostID int64) (domain.Report, error)
}

// Service computes reports directly from the store.
type Service struct {
	store Store
}

// NewService creates a report service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Report summarizes the compost's reading history. domain.ErrCompostNotFound
// is returned wrapped when the compost does not exist.
func (s *Service) Report(ctx context.Context, compostID int64) (domain.Report, error) {
	data, err := s.store.LoadReportData(ctx, compostID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("build report: %w", err)
	}
	return domain.NewReport(domain.Summarize(data)), nil
}
