package report

import "time"

// Window es un intervalo semiabierto [From, To). To cero significa sin límite superior.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	if t.Before(w.From) {
		return false
	}
	return w.To.IsZero() || t.Before(w.To)
}

// MonthWindow cubre el mes calendario de now.
func MonthWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{From: start, To: start.AddDate(0, 1, 0)}
}

// DaysInMonth de now, contemplando febrero bisiesto.
func DaysInMonth(now time.Time) int {
	w := MonthWindow(now)
	return w.To.AddDate(0, 0, -1).Day()
}

// Trailing son los últimos days días hasta now. days <= 0 es todo el historial.
func Trailing(now time.Time, days int) Window {
	if days <= 0 {
		return Window{}
	}
	return Window{From: now.AddDate(0, 0, -days)}
}

// PreviousTrailing es la ventana de comparación [now-2*days, now-days).
func PreviousTrailing(now time.Time, days int) Window {
	return Window{From: now.AddDate(0, 0, -2*days), To: now.AddDate(0, 0, -days)}
}

func YearWindow(year int, loc *time.Location) Window {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return Window{From: start, To: start.AddDate(1, 0, 0)}
}

// Union devuelve la menor ventana que contiene a todas.
func Union(windows ...Window) Window {
	var out Window
	for i, w := range windows {
		if i == 0 {
			out = w
			continue
		}
		if w.From.Before(out.From) {
			out.From = w.From
		}
		if out.To.IsZero() || w.To.IsZero() {
			out.To = time.Time{}
		} else if w.To.After(out.To) {
			out.To = w.To
		}
	}
	return out
}
