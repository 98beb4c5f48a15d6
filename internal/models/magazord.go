package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MagazordListResponse es el sobre de GET /v2/site/pedido
type MagazordListResponse struct {
	Status string `json:"status"`
	Data   struct {
		Items []MagazordSummary `json:"items"`
	} `json:"data"`
}

// MagazordDetailResponse es el sobre de GET /v2/site/pedido/{codigo}.
// Data se conserva crudo para no perder campos desconocidos.
type MagazordDetailResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type MagazordSummary struct {
	Codigo    Code    `json:"codigo"`
	DataHora  string  `json:"dataHora"`
	Valor     *Amount `json:"valorTotal"`
	Situacao  string  `json:"pedidoSituacaoDescricao"`
	PessoaNom *string `json:"pessoaNome"`
}

type magazordDetail struct {
	Codigo        Code    `json:"codigo"`
	DataHora      string  `json:"dataHora"`
	Situacao      *string `json:"pedidoSituacaoDescricao"`
	FormaPagto    *string `json:"pedidoFormaPagamentoDescricao"`
	PessoaNome    *string `json:"pessoaNome"`
	ClienteNome   *string `json:"clienteNome"`
	PessoaEmail   *string `json:"pessoaEmail"`
	EstadoSigla   *string `json:"estadoSigla"`
	CidadeNome    *string `json:"cidadeNome"`
	ValorFinal    *Amount `json:"valorTotalFinal"`
	ValorTotal    *Amount `json:"valorTotal"`
	PedidoRastreo []struct {
		Items []magazordItem `json:"pedidoItem"`
	} `json:"arrayPedidoRastreio"`
}

type magazordItem struct {
	ProdutoNome     *string   `json:"produtoNome"`
	DerivacaoNome   *string   `json:"produtoDerivacaoNome"`
	DerivacaoCodigo *Code     `json:"produtoDerivacaoCodigo"`
	Categoria       *string   `json:"categoria"`
	Quantidade      *Quantity `json:"quantidade"`
	ValorItem       *Amount   `json:"valorItem"`
}

// ToSummary convierte el item del listado al modelo interno.
func (s MagazordSummary) ToSummary(loc *time.Location) (OrderSummary, error) {
	if s.Codigo == "" {
		return OrderSummary{}, errors.New("order summary without codigo")
	}
	placed, err := ParseTimestamp(s.DataHora, loc)
	if err != nil {
		return OrderSummary{}, fmt.Errorf("order %s: %w", s.Codigo, err)
	}
	return OrderSummary{
		ID:       string(s.Codigo),
		PlacedAt: placed,
		Total:    s.Valor.Float(),
		Status:   s.Situacao,
		Customer: s.PessoaNom,
	}, nil
}

// DecodeDetail interpreta un Record del caché como OrderDetail.
// Campos faltantes o con tipo inesperado quedan en nil; la cantidad por
// defecto es 1. Solo dataHora es obligatorio.
func DecodeDetail(id string, rec Record, loc *time.Location) (OrderDetail, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return OrderDetail{}, fmt.Errorf("encode record %s: %w", id, err)
	}

	var w magazordDetail
	if err := json.Unmarshal(raw, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return OrderDetail{}, fmt.Errorf("decode record %s: %w", id, err)
		}
		// json.Unmarshal sigue con el resto de los campos y deja este en cero
		zap.L().Warn("order detail field with unexpected type, using default",
			zap.String("order_id", id),
			zap.String("field", typeErr.Field),
			zap.String("value", typeErr.Value),
		)
	}

	placed, err := ParseTimestamp(w.DataHora, loc)
	if err != nil {
		return OrderDetail{}, fmt.Errorf("order %s: %w", id, err)
	}

	detail := OrderDetail{
		ID:            id,
		PlacedAt:      placed,
		Status:        w.Situacao,
		PaymentMethod: w.FormaPagto,
		CustomerName:  w.PessoaNome,
		CustomerEmail: w.PessoaEmail,
		StateCode:     w.EstadoSigla,
		City:          w.CidadeNome,
	}
	if !present(detail.CustomerName) {
		detail.CustomerName = w.ClienteNome
	}
	switch {
	case w.ValorFinal != nil:
		v := w.ValorFinal.Float()
		detail.Total = &v
	case w.ValorTotal != nil:
		v := w.ValorTotal.Float()
		detail.Total = &v
	}

	for _, r := range w.PedidoRastreo {
		for _, it := range r.Items {
			item := LineItem{
				ProductName: it.ProdutoNome,
				Variant:     it.DerivacaoNome,
				Category:    it.Categoria,
				Quantity:    it.Quantidade.Float(),
				Value:       it.ValorItem.Float(),
			}
			if it.DerivacaoCodigo != nil && *it.DerivacaoCodigo != "" {
				code := string(*it.DerivacaoCodigo)
				item.VariantCode = &code
			}
			detail.Items = append(detail.Items, item)
		}
	}

	return detail, nil
}

// Amount acepta números JSON o strings ("199.90", "1.234,56").
// Un valor ilegible se registra y queda en 0.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	v, _, err := parseAmount(b)
	if err != nil {
		zap.L().Warn("unreadable amount, using 0", zap.Error(err))
		v = 0
	}
	*a = Amount(v)
	return nil
}

// Float devuelve 0 para un monto ausente.
func (a *Amount) Float() float64 {
	if a == nil {
		return 0
	}
	return float64(*a)
}

// Quantity es la cantidad de un item. Ausente o ilegible cuenta como 1.
type Quantity float64

func (q *Quantity) UnmarshalJSON(b []byte) error {
	v, present, err := parseAmount(b)
	if err != nil {
		zap.L().Warn("unreadable quantity, using 1", zap.Error(err))
	}
	if err != nil || !present {
		v = 1
	}
	*q = Quantity(v)
	return nil
}

func (q *Quantity) Float() float64 {
	if q == nil {
		return 1
	}
	return float64(*q)
}

// parseAmount devuelve present=false para null o string vacío.
func parseAmount(b []byte) (float64, bool, error) {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return 0, false, nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return 0, false, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.InexactFloat64(), true, nil
}

// Code es un identificador que Magazord envía a veces como número y a veces
// como string. Cualquier otra cosa se registra y queda vacía.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		zap.L().Warn("unreadable code, leaving it empty", zap.ByteString("value", b))
		*c = ""
		return nil
	}
	*c = Code(n.String())
	return nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp interpreta dataHora en la zona horaria de la tienda.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing dataHora")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if len(s) >= 10 {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid dataHora %q", s)
}
