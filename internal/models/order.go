package models

import (
	"fmt"
	"strings"
	"time"
)

// Etiquetas usadas como clave de agrupación cuando el campo de origen no viene.
const (
	UncategorizedLabel = "Uncategorized"
	UnknownLabel       = "Unknown"
)

// OrderSummary es el registro liviano que devuelve el listado de pedidos.
// Nunca se persiste por sí solo.
type OrderSummary struct {
	ID       string
	PlacedAt time.Time
	Total    float64
	Status   string
	Customer *string
}

// OrderDetail es el pedido completo. Los campos opcionales son punteros:
// nil significa "no vino en la respuesta", distinto de una cadena vacía.
type OrderDetail struct {
	ID            string
	PlacedAt      time.Time
	Status        *string
	PaymentMethod *string
	CustomerName  *string
	CustomerEmail *string
	StateCode     *string
	City          *string
	Total         *float64
	Items         []LineItem
}

// LineItem es una línea del pedido.
type LineItem struct {
	ProductName *string
	Variant     *string
	VariantCode *string
	Category    *string
	Quantity    float64
	Value       float64
}

// HasIdentity indica si el pedido ya tiene el email del cliente.
func (d OrderDetail) HasIdentity() bool {
	return present(d.CustomerEmail)
}

func (d OrderDetail) PaymentLabel() string {
	return labelOr(d.PaymentMethod, UnknownLabel)
}

func (d OrderDetail) StateLabel() string {
	if !present(d.StateCode) {
		return UnknownLabel
	}
	return strings.ToUpper(strings.TrimSpace(*d.StateCode))
}

// CityLabel devuelve "Ciudad-UF", por ejemplo "Curitiba-PR".
func (d OrderDetail) CityLabel() string {
	return fmt.Sprintf("%s-%s", labelOr(d.City, UnknownLabel), d.StateLabel())
}

func (d OrderDetail) CustomerLabel() string {
	return labelOr(d.CustomerName, UnknownLabel)
}

// Email normalizado (minúsculas, sin espacios). Vacío si no hay email.
func (d OrderDetail) Email() string {
	if !present(d.CustomerEmail) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*d.CustomerEmail))
}

func (li LineItem) CategoryLabel() string {
	return labelOr(li.Category, UncategorizedLabel)
}

func (li LineItem) ProductLabel() string {
	return labelOr(li.ProductName, UnknownLabel)
}

// VariantLabel combina producto y derivación: "Terno Slim [Azul / 48]".
func (li LineItem) VariantLabel() string {
	if !present(li.Variant) {
		return li.ProductLabel()
	}
	return fmt.Sprintf("%s [%s]", li.ProductLabel(), strings.TrimSpace(*li.Variant))
}

func (li LineItem) VariantCodeLabel() string {
	return labelOr(li.VariantCode, "")
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func labelOr(s *string, fallback string) string {
	if !present(s) {
		return fallback
	}
	return strings.TrimSpace(*s)
}
