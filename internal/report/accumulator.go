package report

import "sort"

// Bucket acumula un grupo. Count suma una unidad por cada Add.
type Bucket struct {
	Key      string
	Value    float64
	Quantity float64
	Count    int

	children *Accumulator
}

// Children es el segundo nivel (drill-down). Nunca es nil.
func (b *Bucket) Children() *Accumulator {
	if b.children == nil {
		b.children = NewAccumulator()
	}
	return b.children
}

// Accumulator agrupa por clave conservando el orden de inserción, que es el
// desempate de Top.
type Accumulator struct {
	index   map[string]int
	buckets []*Bucket
}

func NewAccumulator() *Accumulator {
	return &Accumulator{index: make(map[string]int)}
}

func (a *Accumulator) Add(key string, value, quantity float64) *Bucket {
	i, ok := a.index[key]
	if !ok {
		i = len(a.buckets)
		a.index[key] = i
		a.buckets = append(a.buckets, &Bucket{Key: key})
	}
	b := a.buckets[i]
	b.Value += value
	b.Quantity += quantity
	b.Count++
	return b
}

func (a *Accumulator) Get(key string) (*Bucket, bool) {
	i, ok := a.index[key]
	if !ok {
		return nil, false
	}
	return a.buckets[i], true
}

func (a *Accumulator) Len() int {
	return len(a.buckets)
}

// Buckets en orden de inserción.
func (a *Accumulator) Buckets() []*Bucket {
	out := make([]*Bucket, len(a.buckets))
	copy(out, a.buckets)
	return out
}

// Metric elige la magnitud por la que se ordena un ranking.
type Metric func(*Bucket) float64

var (
	ByValue    Metric = func(b *Bucket) float64 { return b.Value }
	ByQuantity Metric = func(b *Bucket) float64 { return b.Quantity }
	ByCount    Metric = func(b *Bucket) float64 { return float64(b.Count) }
)

func (a *Accumulator) Total(m Metric) float64 {
	total := 0.0
	for _, b := range a.buckets {
		total += m(b)
	}
	return total
}

// Top ordena por m descendente (estable) y corta en n. n <= 0 devuelve todos.
func (a *Accumulator) Top(n int, m Metric) []*Bucket {
	out := a.Buckets()
	sort.SliceStable(out, func(i, j int) bool {
		return m(out[i]) > m(out[j])
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
