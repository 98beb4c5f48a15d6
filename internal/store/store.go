// Package store persiste el caché de detalles de pedidos.
//
// La clave es el código del pedido y el valor es el registro JSON completo que
// devolvió la API. Los backends no interpretan el registro.
package store

import (
	"context"
	"encoding/json"
)

// Store es un almacén clave -> registro. Put recibe lotes: los backends
// deben escribir el lote completo o devolver error.
type Store interface {
	Get(ctx context.Context, id string) (json.RawMessage, bool, error)
	Put(ctx context.Context, records map[string]json.RawMessage) error
	Enumerate(ctx context.Context, fn func(id string, raw json.RawMessage) error) error
	Close() error
}
