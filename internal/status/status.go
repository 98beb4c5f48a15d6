package status

import "strings"

// Marcadores por defecto de la API de Magazord (pedidoSituacaoDescricao).
const (
	DefaultCancelledMarker = "cancelado"
	DefaultAwaitingMarker  = "aguardando"
)

// Classifier decide qué pedidos entran en los reportes según su situación.
// La comparación es por substring, sin distinguir mayúsculas.
type Classifier struct {
	cancelled string
	awaiting  string
}

func NewClassifier(cancelledMarker, awaitingMarker string) Classifier {
	if strings.TrimSpace(cancelledMarker) == "" {
		cancelledMarker = DefaultCancelledMarker
	}
	return Classifier{
		cancelled: strings.ToLower(strings.TrimSpace(cancelledMarker)),
		awaiting:  strings.ToLower(strings.TrimSpace(awaitingMarker)),
	}
}

// Default usa los marcadores de Magazord.
func Default() Classifier {
	return NewClassifier(DefaultCancelledMarker, DefaultAwaitingMarker)
}

func (c Classifier) IsCancelled(label string) bool {
	return contains(label, c.cancelled)
}

// IsAwaiting devuelve false si no hay marcador configurado.
func (c Classifier) IsAwaiting(label string) bool {
	return contains(label, c.awaiting)
}

// Excluded aplica las dos reglas: cancelados siempre fuera, "aguardando"
// solo cuando el reporte lo pide.
func (c Classifier) Excluded(label string, excludeAwaiting bool) bool {
	if c.IsCancelled(label) {
		return true
	}
	return excludeAwaiting && c.IsAwaiting(label)
}

func contains(label, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(label), marker)
}
