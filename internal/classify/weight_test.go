package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWeight(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *Weight
	}{
		{
			name:     "grams suffix without space",
			input:    "Pâtes 500g",
			expected: &Weight{Grams: 500, Raw: "500g"},
		},
		{
			name:     "no weight token",
			input:    "Couscous Fin",
			expected: nil,
		},
		{
			name:     "kilograms with dot and space",
			input:    "1.5 kg",
			expected: &Weight{Grams: 1500, Raw: "1.5 kg"},
		},
		{
			name:     "kilograms with comma separator",
			input:    "1,5kg",
			expected: &Weight{Grams: 1500, Raw: "1,5kg"},
		},
		{
			name:     "liters treated as grams",
			input:    "Lait 1l",
			expected: &Weight{Grams: 1000, Raw: "1l"},
		},
		{
			name:     "milliliters",
			input:    "Sauce 330 ml",
			expected: &Weight{Grams: 330, Raw: "330 ml"},
		},
		{
			name:     "first match wins",
			input:    "Pack 250g + 1kg gratis",
			expected: &Weight{Grams: 250, Raw: "250g"},
		},
		{
			name:     "fractional grams rounded",
			input:    "12.6g",
			expected: &Weight{Grams: 13, Raw: "12.6g"},
		},
		{
			name:     "unit must end at word boundary",
			input:    "500gr pack",
			expected: nil,
		},
		{
			name:     "absurdly large number is ignored",
			input:    "Pasta 99999999999999999999g",
			expected: nil,
		},
		{
			name:     "absurdly large kilograms is ignored",
			input:    "9999999999kg",
			expected: nil,
		},
		{
			name:     "case insensitive unit",
			input:    "Farine 2KG",
			expected: &Weight{Grams: 2000, Raw: "2KG"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractWeight(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.expected.Grams, got.Grams)
			assert.Equal(t, tt.expected.Raw, got.Raw)
		})
	}
}
