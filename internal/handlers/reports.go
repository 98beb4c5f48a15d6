package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/report"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/service"
)

// Valores por defecto de los parámetros del dashboard.
const (
	defaultMonthlyTarget = 50000
	defaultWindowDays    = 30
	defaultChurnMonths   = 3
)

// Reports es lo que los handlers necesitan de service.ReportService.
type Reports interface {
	CurrentMonthReport(ctx context.Context, monthlyTarget float64) (report.CurrentMonth, error)
	PeriodSummaryReport(ctx context.Context, year, kpiDays, chartDays int) (report.PeriodSummary, error)
	AdvancedReport(ctx context.Context, windowDays, churnMonths int) (service.AdvancedReport, error)
	GeographyReport(ctx context.Context, windowDays int) (report.Geography, error)
	ChurnReport(ctx context.Context, months int) (service.ChurnReport, error)
	RawOrder(ctx context.Context, id string) (models.Record, error)
}

type ReportHandler struct {
	svc     Reports
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewReportHandler: timeout acota cada reporte; al vencer, el servicio
// devuelve lo que alcanzó a juntar.
func NewReportHandler(svc Reports, timeout time.Duration, logger *zap.Logger) *ReportHandler {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	if logger == nil {
		logger = zap.L()
	}
	return &ReportHandler{svc: svc, timeout: timeout, now: time.Now, logger: logger}
}

func (h *ReportHandler) respond(w http.ResponseWriter, r *http.Request, name string, result interface{}, err error) {
	logger := logging.For(r.Context(), h.logger)
	if err != nil {
		logger.Warn("report request failed", zap.String("report", name), zap.Error(err))
		_ = WriteError(w, err)
		return
	}
	if err := WriteJSON(w, result); err != nil {
		logger.Error("cannot write response", zap.String("report", name), zap.Error(err))
	}
}

// CurrentMonth atiende GET /api/dashboard/mes-atual?meta_mensal=
func (h *ReportHandler) CurrentMonth(w http.ResponseWriter, r *http.Request) {
	target, err := floatParam(r, "meta_mensal", defaultMonthlyTarget)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.svc.CurrentMonthReport(ctx, target)
	h.respond(w, r, "current_month", result, err)
}

// PeriodSummary atiende GET /api/dashboard/resumo?ano=&dias_kpi=&dias_graficos=
func (h *ReportHandler) PeriodSummary(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "ano", h.now().Year())
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	kpiDays, err := intParam(r, "dias_kpi", defaultWindowDays)
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	chartDays, err := intParam(r, "dias_graficos", defaultWindowDays)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.svc.PeriodSummaryReport(ctx, year, kpiDays, chartDays)
	h.respond(w, r, "period_summary", result, err)
}

// Advanced atiende GET /api/dashboard/avancado?dias=&meses=
func (h *ReportHandler) Advanced(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "dias", defaultWindowDays)
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	months, err := intParam(r, "meses", defaultChurnMonths)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.svc.AdvancedReport(ctx, days, months)
	h.respond(w, r, "advanced", result, err)
}

// Geography atiende GET /api/dashboard/graficos-avancados?dias=
func (h *ReportHandler) Geography(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "dias", defaultWindowDays)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.svc.GeographyReport(ctx, days)
	h.respond(w, r, "geography", result, err)
}

// Churn atiende GET /api/dashboard/churn?meses=
func (h *ReportHandler) Churn(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "meses", defaultChurnMonths)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.svc.ChurnReport(ctx, months)
	h.respond(w, r, "churn", result, err)
}

// DebugOrder atiende GET /api/debug/orders/{id} con el registro crudo.
func (h *ReportHandler) DebugOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rec, err := h.svc.RawOrder(ctx, chi.URLParam(r, "id"))
	h.respond(w, r, "debug_order", rec, err)
}
