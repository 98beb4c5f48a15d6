package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/status"
)

// PageFetcher devuelve una página del listado ordenada por fecha descendente.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]models.OrderSummary, error)
}

type ListOptions struct {
	// Cutoff: el primer pedido anterior a esta fecha corta la paginación.
	Cutoff time.Time
	// ExcludeAwaiting descarta también los pedidos "aguardando pagamento".
	ExcludeAwaiting bool
}

type ListResult struct {
	Orders          []models.OrderSummary
	Pages           int
	Partial         bool
	StoppedAtCutoff bool
}

// Source recorre el listado página por página. La paginación es estrictamente
// secuencial: el corte temprano depende de respetar el orden de las páginas.
type Source struct {
	pages    PageFetcher
	maxPages int
	status   status.Classifier
	logger   *zap.Logger
}

func NewSource(pages PageFetcher, maxPages int, classifier status.Classifier, logger *zap.Logger) *Source {
	if maxPages <= 0 {
		maxPages = 100
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Source{
		pages:    pages,
		maxPages: maxPages,
		status:   classifier,
		logger:   logger,
	}
}

// Collect junta los pedidos desde el más reciente hasta Cutoff.
// Nunca devuelve error: si una página falla, devuelve lo acumulado con Partial=true.
func (s *Source) Collect(ctx context.Context, opts ListOptions) ListResult {
	logger := logging.For(ctx, s.logger)
	result := ListResult{Orders: make([]models.OrderSummary, 0)}

	for page := 1; page <= s.maxPages; page++ {
		if ctx.Err() != nil {
			result.Partial = true
			logger.Warn("order listing cancelled", zap.Int("pages", result.Pages), zap.Error(ctx.Err()))
			return result
		}

		items, err := s.pages.FetchPage(ctx, page)
		result.Pages++
		if err != nil {
			result.Partial = true
			logger.Warn("order listing aborted, returning partial result",
				zap.Int("page", page),
				zap.Int("orders", len(result.Orders)),
				zap.Error(err),
			)
			return result
		}
		if len(items) == 0 {
			return result
		}

		for _, order := range items {
			if order.PlacedAt.Before(opts.Cutoff) {
				// Orden descendente: ninguna página siguiente puede tener pedidos en la ventana
				result.StoppedAtCutoff = true
				logger.Debug("order listing reached cutoff",
					zap.Int("page", page),
					zap.String("order_id", order.ID),
					zap.Time("cutoff", opts.Cutoff),
				)
				return result
			}
			if s.status.Excluded(order.Status, opts.ExcludeAwaiting) {
				continue
			}
			result.Orders = append(result.Orders, order)
		}
	}

	logger.Warn("order listing hit page cap", zap.Int("max_pages", s.maxPages))
	return result
}
