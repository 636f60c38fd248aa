package shape

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matter struct {
	Sigla string `json:"SiglaSubtipoMateria"`
	Ano   int    `json:"AnoMateria"`
}

func TestOneOrManyUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected []matter
	}{
		{
			name:     "null decodes to empty",
			payload:  `{"Materia": null}`,
			expected: nil,
		},
		{
			name:     "absent field decodes to empty",
			payload:  `{}`,
			expected: nil,
		},
		{
			name:     "array passes through",
			payload:  `{"Materia": [{"SiglaSubtipoMateria":"PEC","AnoMateria":2024},{"SiglaSubtipoMateria":"PL","AnoMateria":2023}]}`,
			expected: []matter{{Sigla: "PEC", Ano: 2024}, {Sigla: "PL", Ano: 2023}},
		},
		{
			name:     "bare object becomes single-element slice",
			payload:  `{"Materia": {"SiglaSubtipoMateria":"PEC","AnoMateria":2024}}`,
			expected: []matter{{Sigla: "PEC", Ano: 2024}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var envelope struct {
				Materia OneOrMany[matter] `json:"Materia"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &envelope))
			assert.Equal(t, tt.expected, []matter(envelope.Materia))
		})
	}
}

func TestOneOrManyScalar(t *testing.T) {
	var v struct {
		Nomes OneOrMany[string] `json:"Nomes"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"Nomes":"apenas um"}`), &v))
	assert.Equal(t, OneOrMany[string]{"apenas um"}, v.Nomes)
}

func TestEnsureArray(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []any
	}{
		{name: "nil becomes empty", input: nil, expected: []any{}},
		{name: "slice unchanged", input: []any{"a", "b"}, expected: []any{"a", "b"}},
		{name: "scalar wrapped", input: 42, expected: []any{42}},
		{name: "map wrapped", input: map[string]any{"k": "v"}, expected: []any{map[string]any{"k": "v"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnsureArray(tt.input))
		})
	}
}
