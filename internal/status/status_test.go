package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier(t *testing.T) {
	c := Default()

	tests := []struct {
		label           string
		excludeAwaiting bool
		want            bool
	}{
		{"Aprovado", false, false},
		{"Cancelado", false, true},
		{"PEDIDO CANCELADO PELO CLIENTE", false, true},
		{"Aguardando Pagamento", false, false},
		{"Aguardando Pagamento", true, true},
		{"", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Excluded(tt.label, tt.excludeAwaiting))
		})
	}
}

func TestClassifierWithoutAwaitingMarker(t *testing.T) {
	c := NewClassifier("", "")

	assert.True(t, c.IsCancelled("cancelado"))
	assert.False(t, c.IsAwaiting("aguardando pagamento"))
	assert.False(t, c.Excluded("aguardando pagamento", true))
}
