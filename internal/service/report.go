package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/skadi/internal/domain"
)

// SalesSummary aggregates paid orders over a date range. Dollar figures
// are decimal strings so callers never do float money math.
type SalesSummary struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	OrderCount    int64     `json:"orderCount"`
	RevenueCents  int64     `json:"revenueCents"`
	CostCents     int64     `json:"costCents"`
	Revenue       string    `json:"revenue"`
	Cost          string    `json:"cost"`
	Margin        string    `json:"margin"`
	MarginPercent string    `json:"marginPercent"`
}

// ReportService produces back-office sales reports.
type ReportService interface {
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
}

type reportService struct {
	orders domain.OrderStore
	logger *slog.Logger
}

// NewReportService creates the report service.
func NewReportService(orders domain.OrderStore, logger *slog.Logger) (ReportService, error) {
	if orders == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &reportService{orders: orders, logger: logger}, nil
}

func (s *reportService) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	const op = "report.sales_summary"

	if !to.After(from) {
		return nil, domain.Invalid(op, "report range end must be after start")
	}

	row, err := s.orders.SalesSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	revenue := decimal.NewFromInt(row.RevenueCents).Div(hundred)
	cost := decimal.NewFromInt(row.TotalCostCents).Div(hundred)
	margin := revenue.Sub(cost)

	marginPercent := decimal.Zero
	if !revenue.IsZero() {
		marginPercent = margin.Div(revenue).Mul(hundred)
	}

	return &SalesSummary{
		From:          from,
		To:            to,
		OrderCount:    row.OrderCount,
		RevenueCents:  row.RevenueCents,
		CostCents:     row.TotalCostCents,
		Revenue:       revenue.StringFixed(2),
		Cost:          cost.StringFixed(2),
		Margin:        margin.StringFixed(2),
		MarginPercent: marginPercent.StringFixed(1),
	}, nil
}
