package applications

import (
	"context"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/storage"
	"github.com/talenthive/recruiting_layer/internal/errors"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// DashboardQuery filters the company's application pipeline.
type DashboardQuery struct {
	CompanyID string
	Status    application.Status
	MinScore  int
	Page      int
	Limit     int
}

// Pagination reports the page shape alongside the filtered total. Total and
// results come from one consistent snapshot, so the counts never drift.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// DashboardPage is one page of dashboard results.
type DashboardPage struct {
	Results    []application.Application `json:"results"`
	Pagination Pagination                `json:"pagination"`
}

// Dashboard lists a company's applications, newest first, with optional
// status and minimum-score filters. Soft-deleted applications never appear.
func (s *Service) Dashboard(ctx context.Context, query DashboardQuery) (DashboardPage, error) {
	if query.CompanyID == "" {
		return DashboardPage{}, errors.Validation("companyId is required")
	}
	if query.Status != "" && !s.validator.Known(query.Status) {
		return DashboardPage{}, errors.Validationf("unknown status %q", query.Status)
	}
	if query.MinScore < 0 {
		return DashboardPage{}, errors.Validation("minScore must be non-negative")
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, total, err := s.store.ListApplications(ctx, storage.Filter{
		CompanyID: query.CompanyID,
		Status:    query.Status,
		MinScore:  query.MinScore,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return DashboardPage{}, err
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return DashboardPage{
		Results:    sanitizeAll(items),
		Pagination: Pagination{Total: total, Page: page, Pages: pages},
	}, nil
}
