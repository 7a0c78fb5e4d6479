package admin

import (
	"net/http"
	"time"

	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
)

// ReportHandler serves the back-office reporting endpoints.
type ReportHandler struct {
	reports service.ReportService
}

// NewReportHandler creates the admin report handler.
func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// SalesSummary handles GET /admin/api/reports/sales?from=&to=. Dates are
// RFC 3339 timestamps or plain dates; a plain "to" date is treated as
// exclusive end-of-day so from=to covers one full day.
func (h *ReportHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	const op = "report.sales_summary"

	from, _, err := parseReportTime(r.URL.Query().Get("from"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "from must be an RFC 3339 timestamp or YYYY-MM-DD date"))
		return
	}

	to, toDateOnly, err := parseReportTime(r.URL.Query().Get("to"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "to must be an RFC 3339 timestamp or YYYY-MM-DD date"))
		return
	}
	if toDateOnly {
		to = to.AddDate(0, 0, 1)
	}

	summary, err := h.reports.SalesSummary(r.Context(), from, to)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, summary)
}

// parseReportTime accepts RFC 3339 or date-only values and reports which
// form was used.
func parseReportTime(raw string) (t time.Time, dateOnly bool, err error) {
	if raw == "" {
		return time.Time{}, false, domain.Invalid("report.parse_time", "missing value")
	}
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse("2006-01-02", raw); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}
