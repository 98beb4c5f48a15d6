package report

import (
	"sort"
	"time"
)

type KPIs struct {
	Revenue         float64 `json:"revenue"`
	PreviousRevenue float64 `json:"previous_revenue"`
	RevenueGrowth   float64 `json:"revenue_growth"`
	Orders          int     `json:"orders"`
	PreviousOrders  int     `json:"previous_orders"`
	OrdersGrowth    float64 `json:"orders_growth"`
	Ticket          float64 `json:"ticket"`
	PreviousTicket  float64 `json:"previous_ticket"`
	TicketGrowth    float64 `json:"ticket_growth"`
}

type MonthPoint struct {
	Month    string  `json:"month"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

type ProductRank struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Lines int    `json:"lines"`
}

type CategoryTicket struct {
	Category string  `json:"category"`
	Ticket   float64 `json:"ticket"`
	Lines    int     `json:"lines"`
}

type PeriodSummary struct {
	Year            int              `json:"year"`
	KPIDays         int              `json:"kpi_days"`
	ChartDays       int              `json:"chart_days"`
	KPIs            KPIs             `json:"kpis"`
	Timeline        []MonthPoint     `json:"timeline"`
	Products        []ProductRank    `json:"products"`
	CategoryTickets []CategoryTicket `json:"category_tickets"`

	Coverage Coverage `json:"coverage"`
}

// PeriodWindow es todo lo que BuildPeriodSummary necesita ver: los dos años
// del gráfico y las ventanas de KPI y de productos.
func PeriodWindow(now time.Time, year, kpiDays, chartDays int) Window {
	return Union(
		YearWindow(year-1, now.Location()),
		YearWindow(year, now.Location()),
		PreviousTrailing(now, kpiDays),
		Trailing(now, kpiDays),
		Trailing(now, chartDays),
	)
}

func BuildPeriodSummary(records []Record, now time.Time, year, kpiDays, chartDays int) PeriodSummary {
	return defaultBuilder.PeriodSummary(records, now, year, kpiDays, chartDays)
}

// PeriodSummary excluye cancelados y pedidos aguardando pago.
func (b Builder) PeriodSummary(records []Record, now time.Time, year, kpiDays, chartDays int) PeriodSummary {
	loc := now.Location()
	out := PeriodSummary{Year: year, KPIDays: kpiDays, ChartDays: chartDays}

	current := Fold{Window: YearWindow(year, loc), Filter: b.settled,
		Dimensions: []Dimension{ByOrder("month", monthKey)}}.Run(records)
	previous := Fold{Window: YearWindow(year-1, loc), Filter: b.settled,
		Dimensions: []Dimension{ByOrder("month", monthKey)}}.Run(records)

	out.Timeline = make([]MonthPoint, 0, 12)
	for m := 1; m <= 12; m++ {
		p := MonthPoint{Month: monthNames[m-1]}
		if bk, ok := current.Group("month").Get(time.Date(year, time.Month(m), 1, 0, 0, 0, 0, loc).Format("2006-01")); ok {
			p.Current = bk.Value
		}
		if bk, ok := previous.Group("month").Get(time.Date(year-1, time.Month(m), 1, 0, 0, 0, 0, loc).Format("2006-01")); ok {
			p.Previous = bk.Value
		}
		out.Timeline = append(out.Timeline, p)
	}

	kpiNow := Fold{Window: Trailing(now, kpiDays), Filter: b.settled}.Run(records)
	kpiPrev := Fold{Window: PreviousTrailing(now, kpiDays), Filter: b.settled}.Run(records)
	k := KPIs{
		Revenue:         kpiNow.Revenue,
		PreviousRevenue: kpiPrev.Revenue,
		Orders:          kpiNow.Orders,
		PreviousOrders:  kpiPrev.Orders,
		Ticket:          Ratio(kpiNow.Revenue, kpiNow.Orders),
		PreviousTicket:  Ratio(kpiPrev.Revenue, kpiPrev.Orders),
	}
	k.RevenueGrowth = Growth(k.Revenue, k.PreviousRevenue)
	k.OrdersGrowth = Growth(float64(k.Orders), float64(k.PreviousOrders))
	k.TicketGrowth = Growth(k.Ticket, k.PreviousTicket)
	out.KPIs = k

	charts := Fold{
		Window: Trailing(now, chartDays),
		Filter: b.settled,
		Dimensions: []Dimension{
			ByItem("product", productCodeKey),
			ByItem("category", categoryKey),
		},
	}.Run(records)

	ranked := charts.Group("product").Top(topRankedProduct, ByCount)
	out.Products = make([]ProductRank, 0, len(ranked))
	for _, bk := range ranked {
		name, code := splitKey(bk.Key)
		out.Products = append(out.Products, ProductRank{Name: name, Code: code, Lines: bk.Count})
	}

	cats := charts.Group("category")
	out.CategoryTickets = make([]CategoryTicket, 0, cats.Len())
	for _, bk := range cats.Buckets() {
		out.CategoryTickets = append(out.CategoryTickets, CategoryTicket{
			Category: bk.Key,
			Ticket:   Ratio(bk.Value, bk.Count),
			Lines:    bk.Count,
		})
	}
	sortTickets(out.CategoryTickets)
	return out
}

func sortTickets(t []CategoryTicket) {
	sort.SliceStable(t, func(i, j int) bool { return t[i].Ticket > t[j].Ticket })
}
