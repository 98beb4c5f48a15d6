// Package cache mantiene el detalle de cada pedido ya consultado. Un pedido
// se pide a la API una sola vez: después se sirve siempre desde acá.
package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/store"
)

// DetailFetcher trae el registro crudo de un pedido desde la API.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (models.Record, error)
}

type entry struct {
	record models.Record
	detail models.OrderDetail
	// decoded es false si el registro no se pudo interpretar (sin dataHora, etc.)
	decoded bool
}

// Cache es el único estado mutable compartido entre requests.
// Las entradas nunca se borran y sus campos nunca vuelven a quedar vacíos.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	dirty   map[string]struct{}

	saveMu sync.Mutex
	group  singleflight.Group

	store   store.Store
	fetcher DetailFetcher
	loc     *time.Location
	logger  *zap.Logger
}

func New(st store.Store, fetcher DetailFetcher, loc *time.Location, logger *zap.Logger) *Cache {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Cache{
		entries: make(map[string]*entry),
		dirty:   make(map[string]struct{}),
		store:   st,
		fetcher: fetcher,
		loc:     loc,
		logger:  logger.With(zap.String("component", "detail_cache")),
	}
}

// Load lee el store completo una vez. Un error de lectura deja el caché
// vacío; un registro corrupto se ignora.
func (c *Cache) Load(ctx context.Context) int {
	loaded := make(map[string]*entry)
	skipped := 0

	err := c.store.Enumerate(ctx, func(id string, raw json.RawMessage) error {
		rec, err := models.DecodeRecord(raw)
		if err != nil {
			skipped++
			c.logger.Warn("skipping corrupt cache record", zap.String("order_id", id), zap.Error(err))
			return nil
		}
		loaded[id] = c.newEntry(id, rec)
		return nil
	})
	if err != nil {
		c.logger.Error("cannot read persisted cache, starting empty", zap.Error(err))
		return 0
	}

	c.mu.Lock()
	for id, e := range loaded {
		if _, exists := c.entries[id]; !exists {
			c.entries[id] = e
		}
	}
	c.mu.Unlock()

	c.logger.Info("detail cache loaded", zap.Int("entries", len(loaded)), zap.Int("skipped", skipped))
	return len(loaded)
}

func (c *Cache) newEntry(id string, rec models.Record) *entry {
	e := &entry{record: rec}
	detail, err := models.DecodeDetail(id, rec, c.loc)
	if err != nil {
		c.logger.Debug("cache record without usable detail", zap.String("order_id", id), zap.Error(err))
		return e
	}
	e.detail = detail
	e.decoded = true
	return e
}

// Lookup devuelve el registro crudo si está en caché. Nunca llama a la API.
func (c *Cache) Lookup(id string) (models.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.record, true
}

// Detail devuelve el detalle tipado si está en caché.
func (c *Cache) Detail(id string) (models.OrderDetail, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || !e.decoded {
		return models.OrderDetail{}, false
	}
	return e.detail, true
}

// GetOrFetch sirve desde caché o hace exactamente un fetch por id, aunque
// varias goroutines pidan el mismo pedido a la vez. Un fetch fallido no
// guarda nada.
func (c *Cache) GetOrFetch(ctx context.Context, id string) (models.Record, error) {
	if rec, ok := c.Lookup(id); ok {
		return rec, nil
	}

	v, err, shared := c.group.Do(id, func() (interface{}, error) {
		// otro llamador pudo haberlo guardado entre el Lookup y el Do
		if rec, ok := c.Lookup(id); ok {
			return rec, nil
		}
		rec, err := c.fetcher.FetchDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		e := c.newEntry(id, rec)

		c.mu.Lock()
		c.entries[id] = e
		c.dirty[id] = struct{}{}
		c.mu.Unlock()
		return rec, nil
	})
	if err != nil {
		logging.For(ctx, c.logger).Debug("detail fetch failed",
			zap.String("order_id", id),
			zap.Bool("shared", shared),
			zap.Error(err),
		)
		return nil, err
	}
	return v.(models.Record), nil
}

// Resolve es GetOrFetch devolviendo el detalle tipado.
func (c *Cache) Resolve(ctx context.Context, id string) (models.OrderDetail, error) {
	rec, err := c.GetOrFetch(ctx, id)
	if err != nil {
		return models.OrderDetail{}, err
	}
	if d, ok := c.Detail(id); ok {
		return d, nil
	}
	return models.DecodeDetail(id, rec, c.loc)
}

// Enrich mezcla un registro nuevo sobre el existente. Solo marca la entrada
// como pendiente de guardar si algún campo cambió.
func (c *Cache) Enrich(id string, update models.Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		c.entries[id] = c.newEntry(id, update)
		c.dirty[id] = struct{}{}
		return true
	}

	merged, changed := e.record.Merge(update)
	if !changed {
		return false
	}
	c.entries[id] = c.newEntry(id, merged)
	c.dirty[id] = struct{}{}
	return true
}

// Flush escribe las entradas pendientes en un único Put. Si falla, quedan
// pendientes para el próximo Flush.
func (c *Cache) Flush(ctx context.Context) (int, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if len(c.dirty) == 0 {
		c.mu.Unlock()
		return 0, nil
	}
	batch := make(map[string]json.RawMessage, len(c.dirty))
	var encodeErrs []string
	for id := range c.dirty {
		raw, err := c.entries[id].record.Encode()
		if err != nil {
			encodeErrs = append(encodeErrs, id)
			continue
		}
		batch[id] = raw
	}
	c.dirty = make(map[string]struct{})
	c.mu.Unlock()

	if len(encodeErrs) > 0 {
		c.logger.Warn("records not serializable, skipped", zap.Strings("order_ids", encodeErrs))
	}

	if err := c.store.Put(ctx, batch); err != nil {
		c.mu.Lock()
		for id := range batch {
			c.dirty[id] = struct{}{}
		}
		c.mu.Unlock()
		return 0, err
	}

	logging.For(ctx, c.logger).Info("detail cache persisted", zap.Int("records", len(batch)))
	return len(batch), nil
}

// Snapshot devuelve los detalles interpretables, del más reciente al más antiguo.
func (c *Cache) Snapshot() []models.OrderDetail {
	c.mu.RLock()
	out := make([]models.OrderDetail, 0, len(c.entries))
	for _, e := range c.entries {
		if e.decoded {
			out = append(out, e.detail)
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Pending devuelve cuántas entradas faltan persistir.
func (c *Cache) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dirty)
}
