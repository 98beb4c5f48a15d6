package validator

import (
	"fmt"
	"math"

	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
)

// Límites de los parámetros de los reportes. Evitan que un request pida
// años de historial y fuerce cientos de páginas contra la API.
const (
	MinYear   = 2000
	MaxYear   = 2100
	MaxDays   = 3650
	MaxMonths = 120
)

// RequestValidator valida los parámetros numéricos de los reportes.
type RequestValidator struct {
	maxDays   int
	maxMonths int
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{maxDays: MaxDays, maxMonths: MaxMonths}
}

// ValidateTarget rechaza metas negativas y valores no finitos (NaN, Inf),
// que no se pueden serializar en la respuesta.
func (v *RequestValidator) ValidateTarget(target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return apperrors.ErrValidation("meta_mensal must be a finite number", nil)
	}
	if target < 0 {
		return apperrors.ErrValidation("meta_mensal must be >= 0", nil).WithMetadata("meta_mensal", target)
	}
	return nil
}

func (v *RequestValidator) ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return apperrors.ErrValidation(fmt.Sprintf("ano must be between %d and %d", MinYear, MaxYear), nil).
			WithMetadata("ano", year)
	}
	return nil
}

// ValidateDays valida una ventana en días; name es el parámetro del request.
func (v *RequestValidator) ValidateDays(name string, days int) error {
	if days < 1 || days > v.maxDays {
		return apperrors.ErrValidation(fmt.Sprintf("%s must be between 1 and %d", name, v.maxDays), nil).
			WithMetadata(name, days)
	}
	return nil
}

func (v *RequestValidator) ValidateMonths(name string, months int) error {
	if months < 1 || months > v.maxMonths {
		return apperrors.ErrValidation(fmt.Sprintf("%s must be between 1 and %d", name, v.maxMonths), nil).
			WithMetadata(name, months)
	}
	return nil
}

// ValidatePeriod valida los tres parámetros del resumen por período.
func (v *RequestValidator) ValidatePeriod(year, kpiDays, chartDays int) error {
	if err := v.ValidateYear(year); err != nil {
		return err
	}
	if err := v.ValidateDays("dias_kpi", kpiDays); err != nil {
		return err
	}
	return v.ValidateDays("dias_graficos", chartDays)
}

// ValidateOrderID acepta solo códigos de pedido alfanuméricos.
func (v *RequestValidator) ValidateOrderID(id string) error {
	if id == "" || len(id) > 64 {
		return apperrors.ErrBadRequest("invalid order id", nil)
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-' || r == '_') {
			return apperrors.ErrBadRequest("invalid order id", nil).WithMetadata("order_id", id)
		}
	}
	return nil
}
