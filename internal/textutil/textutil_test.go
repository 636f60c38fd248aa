package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "strips diacritics and upper-cases",
			input:    "Educação",
			expected: "EDUCACAO",
		},
		{
			name:     "trims whitespace",
			input:    "  Sessão Deliberativa  ",
			expected: "SESSAO DELIBERATIVA",
		},
		{
			name:     "already normalized",
			input:    "CCJ",
			expected: "CCJ",
		},
		{
			name:     "cedilla and tilde",
			input:    "Comissão de Constituição e Justiça",
			expected: "COMISSAO DE CONSTITUICAO E JUSTICA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Educação", "  reforma TRIBUTÁRIA ", "PEC", "", "ação política"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize should be idempotent for %q", in)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected string
	}{
		{name: "zero", value: 0, expected: "R$ 0,00"},
		{name: "small value", value: 12.5, expected: "R$ 12,50"},
		{name: "thousands separator", value: 1234.56, expected: "R$ 1.234,56"},
		{name: "millions", value: 2500000, expected: "R$ 2.500.000,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCurrency(tt.value))
		})
	}
}

func TestParseBRDecimal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "empty", input: "", expected: 0},
		{name: "plain integer", input: "150", expected: 150},
		{name: "comma decimal", input: "12,50", expected: 12.5},
		{name: "thousands and decimal", input: "1.234,56", expected: 1234.56},
		{name: "surrounding whitespace", input: " 99,90 ", expected: 99.9},
		{name: "negative", input: "-10,00", expected: -10},
		{name: "garbage degrades to zero", input: "R$ abc", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ParseBRDecimal(tt.input), 1e-9)
		})
	}
}
