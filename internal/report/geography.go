package report

import "time"

type Geography struct {
	WindowDays int     `json:"window_days"`
	Revenue    float64 `json:"revenue"`
	Orders     int     `json:"orders"`
	States     []Share `json:"states"`
	Cities     []Share `json:"cities"`
	Variants   []Share `json:"variants"`

	Coverage Coverage `json:"coverage"`
}

func BuildGeography(records []Record, now time.Time, windowDays int) Geography {
	return defaultBuilder.Geography(records, now, windowDays)
}

// Geography: estados y ciudades por total del pedido, variantes por cantidad.
func (b Builder) Geography(records []Record, now time.Time, windowDays int) Geography {
	res := Fold{
		Window: Trailing(now, windowDays),
		Filter: b.notCancelled,
		Dimensions: []Dimension{
			ByOrder("state", stateKey),
			ByOrder("city", cityKey),
			ByItem("variant", variantKey),
		},
	}.Run(records)

	states := res.Group("state")
	cities := res.Group("city")
	variants := res.Group("variant")

	return Geography{
		WindowDays: windowDays,
		Revenue:    res.Revenue,
		Orders:     res.Orders,
		States:     shares(states.Top(topStates, ByValue), states.Total(ByValue), ByValue),
		Cities:     shares(cities.Top(topCities, ByValue), cities.Total(ByValue), ByValue),
		Variants:   shares(variants.Top(topVariants, ByQuantity), variants.Total(ByQuantity), ByQuantity),
	}
}
