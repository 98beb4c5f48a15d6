package report

import "github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"

// Filter decide si un pedido entra en el reporte.
type Filter func(Record) bool

// Dimension es una forma de agrupar. A nivel pedido suma el total del
// pedido; a nivel línea suma valor y cantidad de cada item.
type Dimension struct {
	Name  string
	order func(Record) (string, bool)
	item  func(models.LineItem) string
	drill func(models.LineItem) string
}

// ByOrder agrupa pedidos. Si key devuelve false el pedido no suma en esta
// dimensión (por ejemplo, falta el detalle).
func ByOrder(name string, key func(Record) (string, bool)) Dimension {
	return Dimension{Name: name, order: key}
}

// ByItem agrupa líneas. Los pedidos sin detalle no aportan líneas.
func ByItem(name string, key func(models.LineItem) string) Dimension {
	return Dimension{Name: name, item: key}
}

// DrillDown agrega un segundo nivel dentro de cada grupo de línea.
func (d Dimension) DrillDown(key func(models.LineItem) string) Dimension {
	d.drill = key
	return d
}

// Fold es la agregación común a todos los reportes.
type Fold struct {
	Window     Window
	Filter     Filter
	Dimensions []Dimension
}

type Result struct {
	Orders  int
	Revenue float64
	// Records son los pedidos que pasaron ventana y filtro, en orden de entrada.
	Records []Record

	groups map[string]*Accumulator
}

// Group devuelve el acumulador de una dimensión. Una dimensión desconocida
// devuelve un acumulador vacío.
func (r Result) Group(name string) *Accumulator {
	if acc, ok := r.groups[name]; ok {
		return acc
	}
	return NewAccumulator()
}

func (f Fold) Run(records []Record) Result {
	res := Result{groups: make(map[string]*Accumulator, len(f.Dimensions))}
	for _, d := range f.Dimensions {
		res.groups[d.Name] = NewAccumulator()
	}

	for _, rec := range records {
		if !f.Window.Contains(rec.PlacedAt()) {
			continue
		}
		if f.Filter != nil && !f.Filter(rec) {
			continue
		}
		res.Orders++
		res.Revenue += rec.Summary.Total
		res.Records = append(res.Records, rec)

		for _, d := range f.Dimensions {
			acc := res.groups[d.Name]
			if d.order != nil {
				if key, ok := d.order(rec); ok {
					acc.Add(key, rec.Summary.Total, 0)
				}
				continue
			}
			if rec.Detail == nil || d.item == nil {
				continue
			}
			for _, it := range rec.Detail.Items {
				b := acc.Add(d.item(it), it.Value, it.Quantity)
				if d.drill != nil {
					b.Children().Add(d.drill(it), it.Value, it.Quantity)
				}
			}
		}
	}
	return res
}

// Keys de uso común.

func dayKey(r Record) (string, bool) {
	return r.PlacedAt().Format("2006-01-02"), true
}

func monthKey(r Record) (string, bool) {
	return r.PlacedAt().Format("2006-01"), true
}

func paymentKey(r Record) (string, bool) {
	if r.Detail == nil {
		return "", false
	}
	return r.Detail.PaymentLabel(), true
}

func stateKey(r Record) (string, bool) {
	if r.Detail == nil {
		return "", false
	}
	return r.Detail.StateLabel(), true
}

func cityKey(r Record) (string, bool) {
	if r.Detail == nil {
		return "", false
	}
	return r.Detail.CityLabel(), true
}

func categoryKey(li models.LineItem) string { return li.CategoryLabel() }
func productKey(li models.LineItem) string  { return li.ProductLabel() }
func variantKey(li models.LineItem) string  { return li.VariantLabel() }

const keySep = "\x1f"

func productCodeKey(li models.LineItem) string {
	return li.ProductLabel() + keySep + li.VariantCodeLabel()
}
