package report

import (
	"time"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
)

// Record es un pedido listo para agregar: el resumen siempre, el detalle
// solo si se pudo resolver.
type Record struct {
	Summary models.OrderSummary
	Detail  *models.OrderDetail
}

func (r Record) PlacedAt() time.Time {
	return r.Summary.PlacedAt
}

// StatusLabel prefiere el estado del listado y cae al del detalle.
func (r Record) StatusLabel() string {
	if r.Summary.Status != "" {
		return r.Summary.Status
	}
	if r.Detail != nil && r.Detail.Status != nil {
		return *r.Detail.Status
	}
	return ""
}

func (r Record) CustomerLabel() string {
	if r.Detail != nil && r.Detail.CustomerName != nil && *r.Detail.CustomerName != "" {
		return r.Detail.CustomerLabel()
	}
	if r.Summary.Customer != nil && *r.Summary.Customer != "" {
		return *r.Summary.Customer
	}
	return models.UnknownLabel
}

// FromDetail arma un Record a partir de un detalle del caché, para los
// reportes que corren sin listado (CLI).
func FromDetail(d models.OrderDetail) Record {
	s := models.OrderSummary{
		ID:       d.ID,
		PlacedAt: d.PlacedAt,
		Customer: d.CustomerName,
	}
	if d.Total != nil {
		s.Total = *d.Total
	}
	if d.Status != nil {
		s.Status = *d.Status
	}
	detail := d
	return Record{Summary: s, Detail: &detail}
}

func FromDetails(details []models.OrderDetail) []Record {
	out := make([]Record, 0, len(details))
	for _, d := range details {
		out = append(out, FromDetail(d))
	}
	return out
}
