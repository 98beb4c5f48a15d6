package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Record es el detalle de un pedido tal como lo devuelve la API, sin tipar.
// Se guarda así en el caché para que los campos que no conocemos sobrevivan
// a cada re-serialización.
type Record map[string]any

// DecodeRecord parsea un objeto JSON conservando los números como json.Number.
func DecodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	if len(rec) == 0 {
		return nil, errors.New("empty record")
	}
	return rec, nil
}

func (r Record) Encode() (json.RawMessage, error) {
	return json.Marshal(r)
}

// Merge completa r con los campos de update y devuelve una copia nueva.
// Solo se agregan valores que en r están ausentes (faltan, null, string
// vacío, lista u objeto vacíos); un valor presente nunca se reemplaza. Los
// objetos anidados se completan campo a campo.
func (r Record) Merge(update Record) (Record, bool) {
	merged := make(Record, len(r)+len(update))
	for k, v := range r {
		merged[k] = v
	}

	changed := false
	for k, v := range update {
		if absent(v) {
			continue
		}
		old, ok := merged[k]
		if ok && !absent(old) {
			oldMap, isMap := asMap(old)
			newMap, isNewMap := asMap(v)
			if !isMap || !isNewMap {
				continue
			}
			sub, subChanged := Record(oldMap).Merge(Record(newMap))
			if subChanged {
				merged[k] = map[string]any(sub)
				changed = true
			}
			continue
		}
		merged[k] = v
		changed = true
	}
	return merged, changed
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}

func absent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
