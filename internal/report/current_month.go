package report

import (
	"sort"
	"time"
)

type DayPoint struct {
	Date    string  `json:"date"`
	Day     int     `json:"day"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type CategoryDrill struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Products []Share `json:"products"`
}

type RecentOrder struct {
	ID       string    `json:"id"`
	PlacedAt time.Time `json:"placed_at"`
	Customer string    `json:"customer"`
	Status   string    `json:"status"`
	Total    float64   `json:"total"`
}

type CurrentMonth struct {
	Period        string  `json:"period"`
	Revenue       float64 `json:"revenue"`
	Orders        int     `json:"orders"`
	AverageTicket float64 `json:"average_ticket"`
	Target        float64 `json:"target"`
	TargetPercent float64 `json:"target_percent"`
	Remaining     float64 `json:"remaining"`
	DaysInMonth   int     `json:"days_in_month"`
	DaysElapsed   int     `json:"days_elapsed"`
	DaysRemaining int     `json:"days_remaining"`
	DailyAverage  float64 `json:"daily_average"`
	Projection    float64 `json:"projection"`

	Daily          []DayPoint      `json:"daily"`
	Categories     []Share         `json:"categories"`
	PaymentMethods []Share         `json:"payment_methods"`
	TopProducts    []Share         `json:"top_products"`
	Drilldown      []CategoryDrill `json:"drilldown"`
	RecentOrders   []RecentOrder   `json:"recent_orders"`

	Coverage Coverage `json:"coverage"`
}

func BuildCurrentMonth(records []Record, now time.Time, target float64) CurrentMonth {
	return defaultBuilder.CurrentMonth(records, now, target)
}

// CurrentMonth: serie diaria con el valor del listado; categorías y
// productos con el valor de cada línea.
func (b Builder) CurrentMonth(records []Record, now time.Time, target float64) CurrentMonth {
	window := MonthWindow(now)
	res := Fold{
		Window: window,
		Filter: b.notCancelled,
		Dimensions: []Dimension{
			ByOrder("day", dayKey),
			ByOrder("payment", paymentKey),
			ByItem("category", categoryKey).DrillDown(productKey),
			ByItem("product", productKey),
		},
	}.Run(records)

	days := DaysInMonth(now)
	elapsed := now.Day()

	out := CurrentMonth{
		Period:        now.Format("01/2006"),
		Revenue:       res.Revenue,
		Orders:        res.Orders,
		AverageTicket: Ratio(res.Revenue, res.Orders),
		Target:        target,
		DaysInMonth:   days,
		DaysElapsed:   elapsed,
		DaysRemaining: days - elapsed,
		DailyAverage:  Ratio(res.Revenue, elapsed),
	}
	out.Projection = out.DailyAverage * float64(days)
	if target > 0 {
		out.TargetPercent = Percent(res.Revenue, target)
		if target > res.Revenue {
			out.Remaining = target - res.Revenue
		}
	}

	daily := res.Group("day")
	out.Daily = make([]DayPoint, 0, days)
	for d := window.From; d.Before(window.To); d = d.AddDate(0, 0, 1) {
		p := DayPoint{Date: d.Format("2006-01-02"), Day: d.Day()}
		if bucket, ok := daily.Get(p.Date); ok {
			p.Revenue = bucket.Value
			p.Orders = bucket.Count
		}
		out.Daily = append(out.Daily, p)
	}

	categories := res.Group("category")
	out.Categories = shares(categories.Top(0, ByValue), res.Revenue, ByValue)
	payments := res.Group("payment")
	out.PaymentMethods = shares(payments.Top(0, ByValue), payments.Total(ByValue), ByValue)
	products := res.Group("product")
	out.TopProducts = shares(products.Top(topProducts, ByValue), products.Total(ByValue), ByValue)

	out.Drilldown = make([]CategoryDrill, 0, categories.Len())
	for _, c := range categories.Top(0, ByValue) {
		children := c.Children()
		out.Drilldown = append(out.Drilldown, CategoryDrill{
			Category: c.Key,
			Value:    c.Value,
			Products: shares(children.Top(0, ByValue), c.Value, ByValue),
		})
	}

	out.RecentOrders = recent(res.Records, recentOrders)
	return out
}

func recent(records []Record, n int) []RecentOrder {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PlacedAt().After(sorted[j].PlacedAt())
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]RecentOrder, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, RecentOrder{
			ID:       r.Summary.ID,
			PlacedAt: r.PlacedAt(),
			Customer: r.CustomerLabel(),
			Status:   r.StatusLabel(),
			Total:    r.Summary.Total,
		})
	}
	return out
}
