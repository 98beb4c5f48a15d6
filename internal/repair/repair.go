// Package repair completa entradas viejas del caché a las que les falta el
// email del cliente, volviendo a pedirlas a la API de a lotes chicos.
package repair

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/cache"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/worker"
)

const DefaultBatchSize = 20

type Result struct {
	Candidates int  `json:"candidates"`
	Updated    int  `json:"updated"`
	Failed     int  `json:"failed"`
	Persisted  bool `json:"persisted"`
}

// Scanner recuerda los pedidos que la API devolvió sin email: esos no se
// vuelven a pedir en cada corrida. Un fetch fallido no cuenta como intento.
type Scanner struct {
	cache     *cache.Cache
	fetcher   cache.DetailFetcher
	pool      *worker.WorkerPool
	batchSize int
	logger    *zap.Logger

	mu        sync.Mutex
	attempted map[string]struct{}
	inflight  map[string]struct{}
}

func NewScanner(c *cache.Cache, fetcher cache.DetailFetcher, pool *worker.WorkerPool, batchSize int, logger *zap.Logger) *Scanner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Scanner{
		cache:     c,
		fetcher:   fetcher,
		pool:      pool,
		batchSize: batchSize,
		logger:    logger.With(zap.String("component", "repair_scanner")),
		attempted: make(map[string]struct{}),
		inflight:  make(map[string]struct{}),
	}
}

// candidates elige, del más reciente al más antiguo, hasta batchSize
// entradas sin email que no están en curso ni quedaron sin email tras un
// fetch exitoso.
func (s *Scanner) candidates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, d := range s.cache.Snapshot() {
		if len(ids) == s.batchSize {
			break
		}
		if d.HasIdentity() {
			continue
		}
		if _, done := s.attempted[d.ID]; done {
			continue
		}
		if _, busy := s.inflight[d.ID]; busy {
			continue
		}
		s.inflight[d.ID] = struct{}{}
		ids = append(ids, d.ID)
	}
	return ids
}

// finish libera id; si el fetch anduvo y sigue sin email, no se reintenta.
func (s *Scanner) finish(id string, fetched bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
	if !fetched {
		return
	}
	if d, ok := s.cache.Detail(id); !ok || !d.HasIdentity() {
		s.attempted[id] = struct{}{}
	}
}

// Run hace una pasada. Solo escribe en el store si alguna entrada cambió.
func (s *Scanner) Run(ctx context.Context) Result {
	logger := logging.For(ctx, s.logger)

	ids := s.candidates()
	res := Result{Candidates: len(ids)}
	if len(ids) == 0 {
		return res
	}

	var (
		mu      sync.Mutex
		fetched sync.Map
	)
	res.Failed = s.pool.Run(ctx, ids, func(ctx context.Context, id string) error {
		rec, err := s.fetcher.FetchDetail(ctx, id)
		if err != nil {
			return err
		}
		if s.cache.Enrich(id, rec) {
			mu.Lock()
			res.Updated++
			mu.Unlock()
		}
		fetched.Store(id, struct{}{})
		return nil
	})
	for _, id := range ids {
		_, ok := fetched.Load(id)
		s.finish(id, ok)
	}

	if res.Updated > 0 {
		if _, err := s.cache.Flush(ctx); err != nil {
			logger.Error("cannot persist repaired cache entries", zap.Error(err))
		} else {
			res.Persisted = true
		}
	}

	logger.Info("cache repair pass finished",
		zap.Int("candidates", res.Candidates),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
		zap.Bool("persisted", res.Persisted),
	)
	return res
}
