package appliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name               string
		client, brand, mdl string
		weight             float64
		want               string
	}{
		{"basic", "Ana Lopez", "LG", "", 7, "analopez-lg--7"},
		{"model stripped", "Ana Lopez", "LG", "WM-3400 / Inverter", 7, "analopez-lg-wm3400inverter-7"},
		{"fractional weight", "Ana", "Samsung", "X1", 7.5, "ana-samsung-x1-7.5"},
		{"empty components", "", "", "", 5, "---5"},
		{"diacritics folded", "Juan Pérez", "LG", "Inverter", 7, "juanperez-lg-inverter-7"},
		{"tabs and newlines", "Ana\tLopez\n", " L G ", "", 10, "analopez-lg--10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ID(tt.client, tt.brand, tt.mdl, tt.weight))
		})
	}
}

func TestID_CaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t,
		ID("Juan Pérez", "LG", "Inverter", 7),
		ID("juanperez", "lg", "inverter", 7),
	)
	assert.NotEqual(t,
		ID("Juan Pérez", "LG", "", 7),
		ID("Juan Pérez", "LG", "Inverter", 7),
	)
}

func TestID_KnownCollision(t *testing.T) {
	// stripping punctuation merges these models; kept as is
	assert.Equal(t, ID("Ana", "LG", "A1-B2", 7), ID("Ana", "LG", "A1B-2", 7))
}
