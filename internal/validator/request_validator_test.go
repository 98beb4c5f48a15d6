package validator

import (
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
)

func TestValidatePeriod(t *testing.T) {
	v := NewRequestValidator()

	tests := []struct {
		name      string
		year      int
		kpi       int
		chart     int
		wantError bool
	}{
		{"valid", 2026, 30, 30, false},
		{"year too old", 1999, 30, 30, true},
		{"zero kpi", 2026, 0, 30, true},
		{"negative chart", 2026, 30, -1, true},
		{"chart too large", 2026, 30, MaxDays + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePeriod(tt.year, tt.kpi, tt.chart)
			if tt.wantError {
				assert.Error(t, err)
				assert.Equal(t, http.StatusUnprocessableEntity, apperrors.GetStatusCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTargetAndMonths(t *testing.T) {
	v := NewRequestValidator()
	assert.NoError(t, v.ValidateTarget(0))
	assert.Error(t, v.ValidateTarget(-1))
	assert.NoError(t, v.ValidateMonths("meses", 3))
	assert.Error(t, v.ValidateMonths("meses", 0))
	assert.Error(t, v.ValidateMonths("meses", MaxMonths+1))
}

func TestValidateTargetRejectsNonFinite(t *testing.T) {
	v := NewRequestValidator()
	for _, target := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := v.ValidateTarget(target)
		assert.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, apperrors.GetStatusCode(err))
	}
	assert.NoError(t, v.ValidateTarget(50000))
}

func TestValidateOrderID(t *testing.T) {
	v := NewRequestValidator()
	assert.NoError(t, v.ValidateOrderID("12345"))
	assert.NoError(t, v.ValidateOrderID("PED-12_a"))
	assert.Error(t, v.ValidateOrderID(""))
	assert.Error(t, v.ValidateOrderID("../etc"))
	assert.Error(t, v.ValidateOrderID("1;drop"))
}
