package report

import (
	"sort"
	"time"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
)

type ChurnedCustomer struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	LastPurchase string `json:"last_purchase"`
	DaysInactive int    `json:"days_inactive"`
}

type Churn struct {
	Months        int               `json:"months"`
	ThresholdDays int               `json:"threshold_days"`
	Customers     int               `json:"customers"`
	AtRisk        int               `json:"at_risk"`
	Top           []ChurnedCustomer `json:"top"`
}

func BuildChurn(details []models.OrderDetail, now time.Time, months int) Churn {
	return defaultBuilder.Churn(details, now, months)
}

// Churn agrupa por email y se queda con la compra más reciente de cada
// cliente. Entra solo quien supera estrictamente el umbral.
func (b Builder) Churn(details []models.OrderDetail, now time.Time, months int) Churn {
	threshold := months * DaysPerMonth
	out := Churn{Months: months, ThresholdDays: threshold}

	type last struct {
		name string
		date time.Time
	}
	order := make([]string, 0)
	latest := make(map[string]*last)

	for _, d := range details {
		email := d.Email()
		if email == "" {
			continue
		}
		if d.Status != nil && b.Status.IsCancelled(*d.Status) {
			continue
		}
		date := truncateDay(d.PlacedAt)
		cur, ok := latest[email]
		if !ok {
			order = append(order, email)
			latest[email] = &last{name: d.CustomerLabel(), date: date}
			continue
		}
		if date.After(cur.date) {
			cur.name = d.CustomerLabel()
			cur.date = date
		}
	}
	out.Customers = len(order)

	churned := make([]ChurnedCustomer, 0)
	for _, email := range order {
		c := latest[email]
		days := DaysBetween(c.date, now)
		if days <= threshold {
			continue
		}
		churned = append(churned, ChurnedCustomer{
			Email:        email,
			Name:         c.name,
			LastPurchase: c.date.Format("2006-01-02"),
			DaysInactive: days,
		})
	}
	out.AtRisk = len(churned)

	sort.SliceStable(churned, func(i, j int) bool {
		return churned[i].DaysInactive > churned[j].DaysInactive
	})
	if len(churned) > topChurn {
		churned = churned[:topChurn]
	}
	out.Top = churned
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween cuenta días completos entre from y now.
func DaysBetween(from, now time.Time) int {
	if now.Before(from) {
		return 0
	}
	return int(now.Sub(from).Hours() / 24)
}
