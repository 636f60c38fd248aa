package scoring

import (
	"regexp"
	"sort"

	"github.com/onca-labs/fiscaliza/internal/textutil"
	"github.com/onca-labs/fiscaliza/internal/types"
)

// Thematic categories for authored bills.
const (
	CategorySecurity  = "seguranca"
	CategoryEconomy   = "economia"
	CategoryEducation = "educacao"
	CategoryHealth    = "saude"
	CategoryAmendment = "pecs"
	CategoryOther     = "outros"
)

var categoryPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{CategorySecurity, regexp.MustCompile(`CRIME|PENA|POLICIA|SEGURANCA|ARMAS`)},
	{CategoryEconomy, regexp.MustCompile(`IMPOSTO|TRIBUT|ECONOMIA|ORCAMENTO|FINAN`)},
	{CategoryEducation, regexp.MustCompile(`EDUCA|ESCOLA|ENSINO|PROFESSOR`)},
	{CategoryHealth, regexp.MustCompile(`SAUDE|HOSPITAL|MEDICO|SUS`)},
}

// CategorizeBill assigns a bill to a thematic bucket by keywords in its
// summary. Amendments get their own bucket regardless of theme; anything
// unrecognized lands in "outros".
func CategorizeBill(item types.LegislativeItem) string {
	if textutil.Normalize(item.TypeCode) == "PEC" {
		return CategoryAmendment
	}
	summary := textutil.Normalize(item.Summary)
	for _, c := range categoryPatterns {
		if c.pattern.MatchString(summary) {
			return c.name
		}
	}
	return CategoryOther
}

// GroupBillsByCategory buckets bills thematically, preserving input order
// within each bucket. Every category key is present even when empty.
func GroupBillsByCategory(items []types.LegislativeItem) map[string][]types.LegislativeItem {
	out := map[string][]types.LegislativeItem{
		CategorySecurity:  {},
		CategoryEconomy:   {},
		CategoryEducation: {},
		CategoryHealth:    {},
		CategoryAmendment: {},
		CategoryOther:     {},
	}
	for _, item := range items {
		cat := CategorizeBill(item)
		out[cat] = append(out[cat], item)
	}
	return out
}

// CountSpeeches counts plenary speeches in a period. Tier thresholds are
// looser than assiduity because speeches are much rarer events.
func CountSpeeches(speeches []types.Speech) DerivedScore {
	count := len(speeches)

	label := "Baixa"
	switch {
	case count > 50:
		label = "Muito Alta"
	case count > 20:
		label = "Alta"
	case count > 5:
		label = "Média"
	}

	return DerivedScore{Score: count, Label: label, Description: "Discursos em plenário"}
}

// PartySeats is one party's (or state's, or region's) seat count.
type PartySeats struct {
	Name  string `json:"name"`
	Count int    `json:"value"`
}

var regions = map[string][]string{
	"Norte":        {"AC", "AP", "AM", "PA", "RO", "RR", "TO"},
	"Nordeste":     {"AL", "BA", "CE", "MA", "PB", "PE", "PI", "RN", "SE"},
	"Centro-Oeste": {"DF", "GO", "MT", "MS"},
	"Sudeste":      {"ES", "MG", "RJ", "SP"},
	"Sul":          {"PR", "RS", "SC"},
}

// MemberAggregate is the chamber-wide composition breakdown.
type MemberAggregate struct {
	Total        int          `json:"total"`
	TotalParties int          `json:"totalPartidos"`
	ByParty      []PartySeats `json:"porPartido"`
	ByState      []PartySeats `json:"porEstado"`
	ByRegion     []PartySeats `json:"porRegiao"`
}

// AggregateMembers computes a chamber's composition by party, state and
// region. Party and state breakdowns are sorted by seat count descending,
// ties broken by name so output is deterministic.
func AggregateMembers(members []types.PoliticianSummary) MemberAggregate {
	byParty := map[string]int{}
	byState := map[string]int{}
	byRegion := map[string]int{}

	for _, m := range members {
		byParty[m.Party]++
		byState[m.State]++

		region := "Outro"
		for name, states := range regions {
			for _, uf := range states {
				if uf == m.State {
					region = name
					break
				}
			}
		}
		byRegion[region]++
	}

	return MemberAggregate{
		Total:        len(members),
		TotalParties: len(byParty),
		ByParty:      sortedSeats(byParty),
		ByState:      sortedSeats(byState),
		ByRegion:     sortedSeats(byRegion),
	}
}

func sortedSeats(m map[string]int) []PartySeats {
	out := make([]PartySeats, 0, len(m))
	for name, count := range m {
		out = append(out, PartySeats{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
