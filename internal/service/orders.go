package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/api"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/cache"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/config"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/repair"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/report"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/status"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/validator"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/worker"
)

// Lister recorre el listado de pedidos (api.Source).
type Lister interface {
	Collect(ctx context.Context, opts api.ListOptions) api.ListResult
}

// Repairer completa entradas del caché sin email (repair.Scanner).
type Repairer interface {
	Run(ctx context.Context) repair.Result
}

type Options struct {
	// Policy: config.PolicyDrop, config.PolicyFlag o config.PolicyRetry.
	Policy  string
	Builder report.Builder
	Clock   func() time.Time
	Logger  *zap.Logger
}

// ReportService orquesta listado, caché, fetch concurrente y agregación.
type ReportService struct {
	source    Lister
	cache     *cache.Cache
	pool      *worker.WorkerPool
	scanner   Repairer
	builder   report.Builder
	policy    string
	now       func() time.Time
	validator *validator.RequestValidator
	logger    *zap.Logger
}

func NewReportService(source Lister, c *cache.Cache, pool *worker.WorkerPool, scanner Repairer, opts Options) *ReportService {
	if opts.Policy == "" {
		opts.Policy = config.PolicyFlag
	}
	if opts.Builder == (report.Builder{}) {
		opts.Builder = report.NewBuilder(status.Default())
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	return &ReportService{
		source:    source,
		cache:     c,
		pool:      pool,
		scanner:   scanner,
		builder:   opts.Builder,
		policy:    opts.Policy,
		now:       opts.Clock,
		validator: validator.NewRequestValidator(),
		logger:    opts.Logger,
	}
}

type AdvancedReport struct {
	Geography report.Geography `json:"geography"`
	Churn     report.Churn     `json:"churn"`
	Repair    repair.Result    `json:"repair"`
}

type ChurnReport struct {
	report.Churn
	Repair repair.Result `json:"repair"`
}

// collect lista desde now hasta cutoff y resuelve el detalle de los pedidos
// que caen en detailWindow. Un detalle que no se pudo traer se trata según
// la política configurada.
func (s *ReportService) collect(ctx context.Context, cutoff time.Time, excludeAwaiting bool, detailWindow report.Window) ([]report.Record, report.Coverage) {
	logger := logging.For(ctx, s.logger)

	list := s.source.Collect(ctx, api.ListOptions{Cutoff: cutoff, ExcludeAwaiting: excludeAwaiting})

	ids := make([]string, 0, len(list.Orders))
	for _, o := range list.Orders {
		if detailWindow.Contains(o.PlacedAt) {
			ids = append(ids, o.ID)
		}
	}
	details := s.pool.Resolve(ctx, s.cache, ids)

	if _, err := s.cache.Flush(ctx); err != nil {
		logger.Error("cannot persist detail cache", zap.Error(err))
	}

	cov := report.Coverage{
		Pages:           list.Pages,
		Partial:         list.Partial,
		OrdersListed:    len(list.Orders),
		DetailsResolved: len(details),
		Policy:          s.policy,
	}

	records := make([]report.Record, 0, len(list.Orders))
	for _, o := range list.Orders {
		rec := report.Record{Summary: o}
		if detailWindow.Contains(o.PlacedAt) {
			d, ok := details[o.ID]
			if !ok {
				cov.MissingDetails++
				if s.policy == config.PolicyDrop {
					continue
				}
			} else {
				rec.Detail = &d
			}
		}
		records = append(records, rec)
	}

	logger.Info("orders collected",
		zap.Int("pages", cov.Pages),
		zap.Bool("partial", cov.Partial),
		zap.Int("orders", cov.OrdersListed),
		zap.Int("details", cov.DetailsResolved),
		zap.Int("missing_details", cov.MissingDetails),
	)
	return records, cov
}

// CurrentMonthReport arma el dashboard del mes en curso.
func (s *ReportService) CurrentMonthReport(ctx context.Context, monthlyTarget float64) (report.CurrentMonth, error) {
	if err := s.validator.ValidateTarget(monthlyTarget); err != nil {
		return report.CurrentMonth{}, err
	}
	ctx = logging.WithReport(ctx, "current_month")

	now := s.now()
	window := report.MonthWindow(now)
	records, cov := s.collect(ctx, window.From, false, window)

	out := s.builder.CurrentMonth(records, now, monthlyTarget)
	out.Coverage = cov
	return out, nil
}

// PeriodSummaryReport compara year con el año anterior y los últimos kpiDays
// con los kpiDays previos. El detalle se pide solo para la ventana de gráficos.
func (s *ReportService) PeriodSummaryReport(ctx context.Context, year, kpiDays, chartDays int) (report.PeriodSummary, error) {
	if err := s.validator.ValidatePeriod(year, kpiDays, chartDays); err != nil {
		return report.PeriodSummary{}, err
	}
	ctx = logging.WithReport(ctx, "period_summary")

	now := s.now()
	cutoff := report.PeriodWindow(now, year, kpiDays, chartDays).From
	records, cov := s.collect(ctx, cutoff, true, report.Trailing(now, chartDays))

	out := s.builder.PeriodSummary(records, now, year, kpiDays, chartDays)
	out.Coverage = cov
	return out, nil
}

// GeographyReport: estados, ciudades y variantes de los últimos windowDays.
func (s *ReportService) GeographyReport(ctx context.Context, windowDays int) (report.Geography, error) {
	if err := s.validator.ValidateDays("dias", windowDays); err != nil {
		return report.Geography{}, err
	}
	ctx = logging.WithReport(ctx, "geography")
	return s.geography(ctx, windowDays), nil
}

func (s *ReportService) geography(ctx context.Context, windowDays int) report.Geography {
	now := s.now()
	window := report.Trailing(now, windowDays)
	records, cov := s.collect(ctx, window.From, false, window)

	out := s.builder.Geography(records, now, windowDays)
	out.Coverage = cov
	return out
}

// ChurnReport corre una pasada de reparación y calcula el churn sobre todo
// el caché persistido.
func (s *ReportService) ChurnReport(ctx context.Context, months int) (ChurnReport, error) {
	if err := s.validator.ValidateMonths("meses", months); err != nil {
		return ChurnReport{}, err
	}
	ctx = logging.WithReport(ctx, "churn")

	res := s.scanner.Run(ctx)
	return ChurnReport{
		Churn:  s.builder.Churn(s.cache.Snapshot(), s.now(), months),
		Repair: res,
	}, nil
}

// AdvancedReport junta geografía y churn. La reparación y el listado corren
// en paralelo; el churn se calcula después, cuando ambos terminaron.
func (s *ReportService) AdvancedReport(ctx context.Context, windowDays, churnMonths int) (AdvancedReport, error) {
	if err := s.validator.ValidateDays("dias", windowDays); err != nil {
		return AdvancedReport{}, err
	}
	if err := s.validator.ValidateMonths("meses", churnMonths); err != nil {
		return AdvancedReport{}, err
	}
	ctx = logging.WithReport(ctx, "advanced")

	var out AdvancedReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Repair = s.scanner.Run(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		out.Geography = s.geography(gctx, windowDays)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		// Cada parte devuelve lo que alcanzó a juntar; el reporte sale igual
		logging.For(ctx, s.logger).Warn("advanced report cut short", zap.Error(err))
	}

	out.Churn = s.builder.Churn(s.cache.Snapshot(), s.now(), churnMonths)
	return out, nil
}

// CachedAdvancedReport calcula geografía y churn solo con el caché, sin
// llamar a la API. windowDays <= 0 usa todo el historial.
func (s *ReportService) CachedAdvancedReport(windowDays, churnMonths int) AdvancedReport {
	now := s.now()
	snapshot := s.cache.Snapshot()
	geo := s.builder.Geography(report.FromDetails(snapshot), now, windowDays)
	geo.Coverage = report.Coverage{OrdersListed: len(snapshot), DetailsResolved: len(snapshot)}
	return AdvancedReport{
		Geography: geo,
		Churn:     s.builder.Churn(snapshot, now, churnMonths),
	}
}

// Repair corre una pasada del scanner.
func (s *ReportService) Repair(ctx context.Context) repair.Result {
	return s.scanner.Run(logging.WithReport(ctx, "repair"))
}

// RawOrder devuelve el registro crudo de un pedido, del caché o de la API.
func (s *ReportService) RawOrder(ctx context.Context, id string) (models.Record, error) {
	if err := s.validator.ValidateOrderID(id); err != nil {
		return nil, err
	}
	rec, err := s.cache.GetOrFetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.cache.Flush(ctx); err != nil {
		logging.For(ctx, s.logger).Error("cannot persist detail cache", zap.Error(err))
	}
	return rec, nil
}
