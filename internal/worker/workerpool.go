package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/retry"
)

const defaultWorkers = 10

// Resolver devuelve el detalle de un pedido (normalmente el caché).
type Resolver interface {
	Resolve(ctx context.Context, id string) (models.OrderDetail, error)
}

// Unit es el trabajo de un worker sobre un id.
type Unit func(ctx context.Context, id string) error

type Options struct {
	Workers        int
	RequestTimeout time.Duration
	// Retry reintenta los errores reintentables antes de descartar el pedido.
	Retry          bool
	RetryAttempts  int
	RetryBaseDelay time.Duration
	Logger         *zap.Logger
}

// WorkerPool corre un número fijo de workers sobre un canal de jobs.
// Un job que falla se descarta: el resultado puede tener menos entradas que la entrada.
type WorkerPool struct {
	workers  int
	timeout  time.Duration
	retry    bool
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

func NewWorkerPool(opts Options) *WorkerPool {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	return &WorkerPool{
		workers:  opts.Workers,
		timeout:  opts.RequestTimeout,
		retry:    opts.Retry,
		attempts: opts.RetryAttempts,
		delay:    opts.RetryBaseDelay,
		logger:   opts.Logger.With(zap.String("component", "worker_pool")),
	}
}

func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run aplica unit a cada id con a lo sumo wp.workers en paralelo y devuelve
// cuántos fallaron. Los ids repetidos se procesan una sola vez.
func (wp *WorkerPool) Run(ctx context.Context, ids []string, unit Unit) int {
	if len(ids) == 0 {
		return 0
	}

	jobs := make(chan string)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	workers := wp.workers
	if workers > len(ids) {
		workers = len(ids)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for id := range jobs {
				if err := wp.exec(ctx, id, unit); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					logging.For(ctx, wp.logger).Warn("order detail dropped",
						zap.Int("worker", n),
						zap.String("order_id", id),
						zap.Error(err),
					)
				}
			}
		}(i)
	}

	unique := dedupe(ids)
	sent := 0
enqueue:
	for _, id := range unique {
		select {
		case jobs <- id:
			sent++
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()
	return failed + len(unique) - sent
}

func (wp *WorkerPool) exec(ctx context.Context, id string, unit Unit) error {
	once := func() error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		uctx := ctx
		if wp.timeout > 0 {
			var cancel context.CancelFunc
			uctx, cancel = context.WithTimeout(ctx, wp.timeout)
			defer cancel()
		}
		return unit(uctx, id)
	}
	if !wp.retry {
		return once()
	}
	return retry.WithRetryIf(ctx, wp.attempts, wp.delay, apperrors.IsRetryable, once)
}

// Resolve trae el detalle de cada id a través de r. Los ids que fallan no
// aparecen en el resultado.
func (wp *WorkerPool) Resolve(ctx context.Context, r Resolver, ids []string) map[string]models.OrderDetail {
	out := make(map[string]models.OrderDetail, len(ids))
	var mu sync.Mutex

	failed := wp.Run(ctx, ids, func(ctx context.Context, id string) error {
		d, err := r.Resolve(ctx, id)
		if err != nil {
			return err
		}
		mu.Lock()
		out[id] = d
		mu.Unlock()
		return nil
	})

	if failed > 0 {
		logging.For(ctx, wp.logger).Warn("some order details could not be resolved",
			zap.Int("requested", len(ids)),
			zap.Int("resolved", len(out)),
			zap.Int("failed", failed),
		)
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
