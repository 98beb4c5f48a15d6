package report

import "math"

// Growth es la variación porcentual de prev a cur, con un decimal.
// Sin base de comparación: 0 si cur también es 0, si no 100.
func Growth(cur, prev float64) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return Round((cur-prev)/prev*100, 1)
}

// Percent de part sobre total, con la misma regla para total cero.
func Percent(part, total float64) float64 {
	if total == 0 {
		if part == 0 {
			return 0
		}
		return 100
	}
	return part / total * 100
}

func Ratio(num float64, den int) float64 {
	if den == 0 {
		return 0
	}
	return num / float64(den)
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
