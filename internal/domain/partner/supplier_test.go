package partner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupplier(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		supplierName string
		wantErr      bool
	}{
		{"valid supplier", "forn-001", "Industrial Bearings Ltda", false},
		{"empty code", "", "Fornecedor", true},
		{"empty name", "FORN-002", "  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSupplier(tt.code, tt.supplierName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "FORN-001", s.Code)
			assert.Equal(t, SupplierStatusActive, s.Status)
			assert.True(t, s.IsActive())
		})
	}
}
