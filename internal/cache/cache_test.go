package cache

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/store"
)

type fakeFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	records map[string]models.Record
	err     error
}

func (f *fakeFetcher) FetchDetail(ctx context.Context, id string) (models.Record, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

// memStore cuenta los Put para verificar que no hay escrituras de más.
type memStore struct {
	mu      sync.Mutex
	records map[string]json.RawMessage
	puts    int
	failPut error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]json.RawMessage{}}
}

func (m *memStore) Get(_ context.Context, id string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.records[id]
	return raw, ok, nil
}

func (m *memStore) Put(_ context.Context, records map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.puts++
	for k, v := range records {
		m.records[k] = v
	}
	return nil
}

func (m *memStore) Enumerate(_ context.Context, fn func(string, json.RawMessage) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.records {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func rec(id, date, email string) models.Record {
	r := models.Record{"codigo": id, "dataHora": date, "valorTotal": json.Number("100")}
	if email != "" {
		r["pessoaEmail"] = email
	}
	return r
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	fetcher := &fakeFetcher{
		release: make(chan struct{}),
		records: map[string]models.Record{"42": rec("42", "2026-10-01 10:00:00", "a@x.com")},
	}
	c := New(newMemStore(), fetcher, time.UTC, zap.NewNop())

	var wg sync.WaitGroup
	results := make([]models.Record, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.GetOrFetch(context.Background(), "42")
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	// dejamos que todas las goroutines lleguen al fetch antes de liberarlo
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, r := range results {
		assert.Equal(t, "42", r["codigo"])
	}

	_, err := c.GetOrFetch(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load(), "a cached id is never fetched again")
	assert.Equal(t, 1, c.Pending())
}

func TestGetOrFetchFailureStoresNothing(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("timeout")}
	c := New(newMemStore(), fetcher, time.UTC, zap.NewNop())

	_, err := c.GetOrFetch(context.Background(), "7")
	require.Error(t, err)
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Pending())
}

func TestEnrichNeverRegresses(t *testing.T) {
	st := newMemStore()
	c := New(st, &fakeFetcher{}, time.UTC, zap.NewNop())
	c.Enrich("1", rec("1", "2026-10-01 10:00:00", "a@x.com"))

	update := rec("1", "2026-10-01 10:00:00", "")
	update["pessoaEmail"] = nil
	update["cidadeNome"] = "Curitiba"
	assert.True(t, c.Enrich("1", update))

	d, ok := c.Detail("1")
	require.True(t, ok)
	require.NotNil(t, d.CustomerEmail)
	assert.Equal(t, "a@x.com", *d.CustomerEmail)
	require.NotNil(t, d.City)
	assert.Equal(t, "Curitiba", *d.City)

	// mismo contenido: no cambia nada
	assert.False(t, c.Enrich("1", update))
}

func TestEnrichKeepsPresentValues(t *testing.T) {
	c := New(newMemStore(), &fakeFetcher{}, time.UTC, zap.NewNop())
	first := rec("1", "2026-10-01 10:00:00", "")
	first["valorTotal"] = json.Number("100")
	c.Enrich("1", first)

	update := rec("1", "2026-10-09 18:00:00", "b@x.com")
	update["valorTotal"] = json.Number("250")
	assert.True(t, c.Enrich("1", update))

	d, ok := c.Detail("1")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC), d.PlacedAt)
	require.NotNil(t, d.Total)
	assert.Equal(t, 100.0, *d.Total)
	assert.Equal(t, "b@x.com", d.Email())
}

func TestFlushWritesOnlyDirtyEntries(t *testing.T) {
	st := newMemStore()
	c := New(st, &fakeFetcher{}, time.UTC, zap.NewNop())
	ctx := context.Background()

	n, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, st.puts)

	c.Enrich("1", rec("1", "2026-10-01 10:00:00", "a@x.com"))
	c.Enrich("2", rec("2", "2026-10-02 10:00:00", ""))
	n, err = c.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, st.puts)

	n, err = c.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, st.puts)
}

func TestFlushFailureKeepsEntriesPending(t *testing.T) {
	st := newMemStore()
	st.failPut = errors.New("disk full")
	c := New(st, &fakeFetcher{}, time.UTC, zap.NewNop())
	c.Enrich("1", rec("1", "2026-10-01 10:00:00", ""))

	_, err := c.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, c.Pending())

	st.failPut = nil
	n, err := c.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoadSkipsCorruptRecords(t *testing.T) {
	st := newMemStore()
	st.records["1"] = json.RawMessage(`{"codigo":"1","dataHora":"2026-10-01 10:00:00","campoX":"keep"}`)
	st.records["2"] = json.RawMessage(`{broken`)
	st.records["3"] = json.RawMessage(`{}`)

	fetcher := &fakeFetcher{}
	c := New(st, fetcher, time.UTC, zap.NewNop())
	assert.Equal(t, 1, c.Load(context.Background()))

	r, err := c.GetOrFetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "keep", r["campoX"])
	assert.Zero(t, fetcher.calls.Load())
}

func TestCacheSurvivesRestartWithFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()
	fetcher := &fakeFetcher{records: map[string]models.Record{
		"9": rec("9", "2026-10-03 08:00:00", "z@x.com"),
	}}

	first := New(store.OpenFile(path, zap.NewNop()), fetcher, time.UTC, zap.NewNop())
	_, err := first.GetOrFetch(ctx, "9")
	require.NoError(t, err)
	_, err = first.Flush(ctx)
	require.NoError(t, err)

	second := New(store.OpenFile(path, zap.NewNop()), fetcher, time.UTC, zap.NewNop())
	second.Load(ctx)
	d, err := second.Resolve(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "z@x.com", d.Email())
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestSnapshotNewestFirst(t *testing.T) {
	c := New(newMemStore(), &fakeFetcher{}, time.UTC, zap.NewNop())
	c.Enrich("old", rec("old", "2026-09-01 10:00:00", ""))
	c.Enrich("new", rec("new", "2026-10-05 10:00:00", ""))
	c.Enrich("mid", rec("mid", "2026-09-20 10:00:00", ""))
	c.Enrich("bad", models.Record{"codigo": "bad"})

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "new", snap[0].ID)
	assert.Equal(t, "mid", snap[1].ID)
	assert.Equal(t, "old", snap[2].ID)
	assert.Equal(t, 4, c.Len())
}
