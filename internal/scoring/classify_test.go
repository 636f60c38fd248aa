package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onca-labs/fiscaliza/internal/types"
)

func TestCategorizeBill(t *testing.T) {
	tests := []struct {
		name string
		item types.LegislativeItem
		want string
	}{
		{"amendment goes to pecs regardless of theme", types.LegislativeItem{TypeCode: "PEC", Summary: "Reforma da saúde"}, CategoryAmendment},
		{"security keywords", types.LegislativeItem{TypeCode: "PL", Summary: "Agrava a pena para crime organizado"}, CategorySecurity},
		{"economy keywords", types.LegislativeItem{TypeCode: "PL", Summary: "Reduz imposto sobre serviços"}, CategoryEconomy},
		{"education keywords with diacritics", types.LegislativeItem{TypeCode: "PL", Summary: "Amplia o ensino básico"}, CategoryEducation},
		{"health keywords", types.LegislativeItem{TypeCode: "PL", Summary: "Financiamento do SUS"}, CategoryHealth},
		{"unknown falls to outros", types.LegislativeItem{TypeCode: "PL", Summary: "Regula drones recreativos"}, CategoryOther},
		{"empty item never panics", types.LegislativeItem{}, CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeBill(tt.item))
		})
	}
}

func TestGroupBillsByCategory(t *testing.T) {
	items := []types.LegislativeItem{
		{ID: 1, TypeCode: "PEC"},
		{ID: 2, TypeCode: "PL", Summary: "Política de segurança e armas"},
		{ID: 3, TypeCode: "PL", Summary: "Sem tema claro"},
	}

	got := GroupBillsByCategory(items)

	assert.Len(t, got, 6, "all category keys present even when empty")
	assert.Len(t, got[CategoryAmendment], 1)
	assert.Len(t, got[CategorySecurity], 1)
	assert.Len(t, got[CategoryOther], 1)
	assert.Empty(t, got[CategoryHealth])
}

func TestCountSpeeches(t *testing.T) {
	makeSpeeches := func(n int) []types.Speech {
		return make([]types.Speech, n)
	}

	assert.Equal(t, 0, CountSpeeches(nil).Score)
	assert.Equal(t, "Baixa", CountSpeeches(nil).Label)
	assert.Equal(t, "Média", CountSpeeches(makeSpeeches(6)).Label)
	assert.Equal(t, "Alta", CountSpeeches(makeSpeeches(21)).Label)
	assert.Equal(t, "Muito Alta", CountSpeeches(makeSpeeches(51)).Label)
}

func TestAggregateMembers(t *testing.T) {
	members := []types.PoliticianSummary{
		{ID: 1, Party: "AAA", State: "SP"},
		{ID: 2, Party: "AAA", State: "SP"},
		{ID: 3, Party: "BBB", State: "AM"},
		{ID: 4, Party: "CCC", State: "RS"},
	}

	got := AggregateMembers(members)

	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 3, got.TotalParties)

	require.NotEmpty(t, got.ByParty)
	assert.Equal(t, PartySeats{Name: "AAA", Count: 2}, got.ByParty[0])

	assert.Equal(t, PartySeats{Name: "SP", Count: 2}, got.ByState[0])

	regionCounts := map[string]int{}
	for _, r := range got.ByRegion {
		regionCounts[r.Name] = r.Count
	}
	assert.Equal(t, map[string]int{"Sudeste": 2, "Norte": 1, "Sul": 1}, regionCounts)
}

func TestAggregateMembersUnknownState(t *testing.T) {
	got := AggregateMembers([]types.PoliticianSummary{{ID: 1, Party: "AAA", State: "XX"}})

	require.Len(t, got.ByRegion, 1)
	assert.Equal(t, "Outro", got.ByRegion[0].Name)
}

func TestAggregateMembersEmpty(t *testing.T) {
	got := AggregateMembers(nil)

	assert.Equal(t, 0, got.Total)
	assert.Empty(t, got.ByParty)
}
