package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const scanBatch = 200

// RedisStore guarda cada registro en su propia clave (prefix + id),
// codificado en msgpack para ocupar menos memoria que el JSON.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedis(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = "pedido:"
	}
	if logger == nil {
		logger = zap.L()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger.With(zap.String("store", "redis"), zap.String("prefix", prefix)),
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (json.RawMessage, bool, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", id, err)
	}
	raw, err := decodeMsgpack(data)
	if err != nil {
		return nil, false, fmt.Errorf("order %s: %w", id, err)
	}
	return raw, true, nil
}

func (s *RedisStore) Put(ctx context.Context, records map[string]json.RawMessage) error {
	if len(records) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(records))
	for id, raw := range records {
		data, err := encodeMsgpack(raw)
		if err != nil {
			return fmt.Errorf("order %s: %w", id, err)
		}
		values[s.key(id)] = data
	}

	// MSET es atómico: el lote se escribe entero o no se escribe
	if err := s.client.MSet(ctx, values).Err(); err != nil {
		return fmt.Errorf("redis mset: %w", err)
	}
	return nil
}

// Enumerate saltea los valores que no se pueden decodificar.
func (s *RedisStore) Enumerate(ctx context.Context, fn func(id string, raw json.RawMessage) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}
		raw, err := decodeMsgpack(data)
		if err != nil {
			s.logger.Warn("skipping corrupt cache record", zap.String("key", key), zap.Error(err))
			continue
		}
		if err := fn(strings.TrimPrefix(key, s.prefix), raw); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func encodeMsgpack(raw json.RawMessage) ([]byte, error) {
	var v map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return msgpack.Marshal(normalizeNumbers(v))
}

func decodeMsgpack(data []byte) (json.RawMessage, error) {
	var v map[string]interface{}
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid msgpack record: %w", err)
	}
	return json.Marshal(v)
}

// normalizeNumbers convierte json.Number a int64 o float64 para que msgpack
// los guarde como números y no como strings.
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeNumbers(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeNumbers(val)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}
