// Package report convierte pedidos resueltos en las estructuras de cada
// dashboard. Todas las variantes pasan por el mismo Fold; cambian la
// ventana, el filtro y las dimensiones.
package report

import (
	"strings"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/status"
)

const (
	topProducts      = 10
	topVariants      = 10
	topStates        = 10
	topCities        = 10
	topRankedProduct = 15
	topChurn         = 20
	recentOrders     = 20

	// DaysPerMonth convierte el umbral de churn de meses a días.
	DaysPerMonth = 30
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Builder arma los reportes con los marcadores de estado configurados.
type Builder struct {
	Status status.Classifier
}

func NewBuilder(classifier status.Classifier) Builder {
	return Builder{Status: classifier}
}

var defaultBuilder = NewBuilder(status.Default())

func (b Builder) notCancelled(r Record) bool {
	return !b.Status.IsCancelled(r.StatusLabel())
}

func (b Builder) settled(r Record) bool {
	return !b.Status.Excluded(r.StatusLabel(), true)
}

// Share es una fila de ranking.
type Share struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Quantity float64 `json:"quantity"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// shares convierte buckets en filas; Percent es relativo a total según m.
func shares(buckets []*Bucket, total float64, m Metric) []Share {
	out := make([]Share, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, Share{
			Label:    b.Key,
			Value:    b.Value,
			Quantity: b.Quantity,
			Count:    b.Count,
			Percent:  Percent(m(b), total),
		})
	}
	return out
}

func splitKey(key string) (string, string) {
	name, code, _ := strings.Cut(key, keySep)
	return name, code
}
