package repair

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/cache"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/worker"
)

type countingStore struct {
	mu      sync.Mutex
	records map[string]json.RawMessage
	puts    int
}

func (s *countingStore) Get(_ context.Context, id string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.records[id]
	return raw, ok, nil
}

func (s *countingStore) Put(_ context.Context, records map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	for k, v := range records {
		s.records[k] = v
	}
	return nil
}

func (s *countingStore) Enumerate(_ context.Context, fn func(string, json.RawMessage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.records {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *countingStore) Close() error { return nil }

type remote struct {
	mu      sync.Mutex
	records map[string]models.Record
	calls   []string
	down    error
}

func (r *remote) FetchDetail(_ context.Context, id string) (models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, id)
	if r.down != nil {
		return nil, r.down
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

func entry(id string, day int, email string) models.Record {
	r := models.Record{
		"codigo":   id,
		"dataHora": fmt.Sprintf("2026-09-%02d 10:00:00", day),
	}
	if email != "" {
		r["pessoaEmail"] = email
	}
	return r
}

func setup(t *testing.T, batch int) (*Scanner, *cache.Cache, *countingStore, *remote) {
	t.Helper()
	st := &countingStore{records: map[string]json.RawMessage{}}
	rm := &remote{records: map[string]models.Record{}}

	c := cache.New(st, rm, time.UTC, zap.NewNop())
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("%d", i)
		email := ""
		if i%2 == 0 {
			email = "c" + id + "@x.com"
		}
		c.Enrich(id, entry(id, i, email))
		rm.records[id] = entry(id, i, "fixed"+id+"@x.com")
	}
	_, err := c.Flush(context.Background())
	require.NoError(t, err)
	st.puts = 0

	pool := worker.NewWorkerPool(worker.Options{Workers: 2, Logger: zap.NewNop()})
	return NewScanner(c, rm, pool, batch, zap.NewNop()), c, st, rm
}

func TestRunRepairsNewestFirstUpToBatch(t *testing.T) {
	s, c, st, rm := setup(t, 2)

	res := s.Run(context.Background())

	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, 2, res.Updated)
	assert.True(t, res.Persisted)
	assert.Equal(t, 1, st.puts)
	assert.ElementsMatch(t, []string{"5", "3"}, rm.calls)

	d, ok := c.Detail("5")
	require.True(t, ok)
	assert.Equal(t, "fixed5@x.com", d.Email())
	d, _ = c.Detail("1")
	assert.False(t, d.HasIdentity())
}

func TestRunIsIdempotentOnEnrichedCache(t *testing.T) {
	s, _, st, _ := setup(t, 20)

	first := s.Run(context.Background())
	assert.Equal(t, 3, first.Candidates)
	assert.Equal(t, 1, st.puts)

	second := s.Run(context.Background())
	assert.Zero(t, second.Candidates)
	assert.False(t, second.Persisted)
	assert.Equal(t, 1, st.puts)
}

func TestRunSkipsAlreadyAttemptedIDs(t *testing.T) {
	s, _, st, rm := setup(t, 20)
	// la API sigue sin devolver email para el pedido 1
	rm.records["1"] = entry("1", 1, "")

	first := s.Run(context.Background())
	assert.Equal(t, 3, first.Candidates)
	assert.Equal(t, 2, first.Updated)

	rm.calls = nil
	second := s.Run(context.Background())
	assert.Zero(t, second.Candidates)
	assert.Empty(t, rm.calls)
	assert.Equal(t, 1, st.puts)
}

func TestRunWithoutChangesDoesNotWrite(t *testing.T) {
	s, _, st, rm := setup(t, 20)
	for _, id := range []string{"1", "3", "5"} {
		delete(rm.records, id)
	}

	res := s.Run(context.Background())

	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 3, res.Failed)
	assert.Zero(t, res.Updated)
	assert.False(t, res.Persisted)
	assert.Zero(t, st.puts)
}

func TestRunRetriesAfterFailedFetch(t *testing.T) {
	s, c, st, rm := setup(t, 20)
	rm.down = errors.New("503 service unavailable")

	first := s.Run(context.Background())
	assert.Equal(t, 3, first.Candidates)
	assert.Equal(t, 3, first.Failed)
	assert.Zero(t, st.puts)

	rm.down = nil
	second := s.Run(context.Background())
	assert.Equal(t, 3, second.Candidates)
	assert.Equal(t, 3, second.Updated)
	assert.True(t, second.Persisted)

	d, ok := c.Detail("5")
	require.True(t, ok)
	assert.Equal(t, "fixed5@x.com", d.Email())
}
