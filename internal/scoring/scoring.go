// Package scoring derives heuristic performance metrics from canonical
// legislative records. Every function here is pure and total: empty or nil
// input yields a documented zero-value result, never a panic.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/onca-labs/fiscaliza/internal/textutil"
	"github.com/onca-labs/fiscaliza/internal/types"
)

// DerivedScore is a numeric score with a human-readable tier label.
type DerivedScore struct {
	Score       int    `json:"score"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// RelatorScore summarizes rapporteur assignments.
type RelatorScore struct {
	Score      int                     `json:"score"`
	Summary    string                  `json:"resumo"`
	Highlights []types.LegislativeItem `json:"destaques"`
}

// CommitteeScore summarizes strategic-committee influence.
type CommitteeScore struct {
	Score int      `json:"score"`
	Roles []string `json:"papeis"`
	Label string   `json:"label"`
}

// EfficiencyIndex relates productivity to spending. Index is a string because
// two sentinel values ("N/A", "Máx") share the field with the numeric result.
type EfficiencyIndex struct {
	Index          string `json:"indice"`
	Interpretation string `json:"interpretacao"`
}

// attendanceKeywords mark event descriptions that count toward assiduity.
var attendanceKeywords = []string{"SESSAO", "REUNIAO", "AUDIENCIA", "COMISSAO"}

// ComputeAssiduity counts valid plenary/committee activity. Cancelled events
// and sessions closed without quorum are excluded before counting.
func ComputeAssiduity(events []types.AttendanceEvent) DerivedScore {
	if len(events) == 0 {
		return DerivedScore{Score: 0, Label: "Sem registros", Description: "Nenhuma atividade oficial detectada."}
	}

	count := 0
	for _, e := range events {
		status := textutil.Normalize(e.Status)
		if strings.Contains(status, "CANCELAD") || strings.Contains(status, "ENCERRADA (SEM") {
			continue
		}
		desc := textutil.Normalize(e.Description)
		for _, kw := range attendanceKeywords {
			if strings.Contains(desc, kw) {
				count++
				break
			}
		}
	}

	label := "Baixa"
	switch {
	case count > 200:
		label = "Muito Alta"
	case count > 100:
		label = "Alta"
	case count > 50:
		label = "Média"
	}

	desc := fmt.Sprintf("%d atividades registradas", count)
	if count == 1 {
		desc = "1 atividade registrada"
	}

	return DerivedScore{Score: count, Label: label, Description: desc}
}

var (
	substantiveKeywords = regexp.MustCompile(`(CODIGO|REFORMA|DIRETRIZES|ESTATUTO|MARCO|PEC|PLP|COMPLEMENTAR|SISTEMA|POLITICA|LEI)`)
	triviaKeywords      = []string{"DENOMINA", "DIA NACIONAL", "TITULO DE CIDADAO"}
)

// FilterComplexBills keeps the substantive bills out of a member's output:
// amendments and complementary laws always pass, commemorative/naming bills
// never do, and the rest must match a substantive keyword. The result is
// sorted by year descending and capped to the top 5.
func FilterComplexBills(items []types.LegislativeItem) []types.LegislativeItem {
	out := make([]types.LegislativeItem, 0, len(items))
	for _, item := range items {
		typeCode := textutil.Normalize(item.TypeCode)
		if typeCode == "PEC" || typeCode == "PLP" {
			out = append(out, item)
			continue
		}

		summary := textutil.Normalize(item.Summary)
		if hasTrivia(summary) {
			continue
		}
		if substantiveKeywords.MatchString(summary) {
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Year > out[j].Year })

	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func hasTrivia(normalizedSummary string) bool {
	for _, kw := range triviaKeywords {
		if strings.Contains(normalizedSummary, kw) {
			return true
		}
	}
	return false
}

// ComputeRelatorScore weighs rapporteur assignments by matter type:
// amendments count most, law variants count less, everything else counts one
// point and stays out of the highlights.
func ComputeRelatorScore(w Weights, matters []types.LegislativeItem) RelatorScore {
	if len(matters) == 0 {
		return RelatorScore{Score: 0, Summary: "Nenhuma relatoria", Highlights: []types.LegislativeItem{}}
	}

	var score, amendments, laws int
	highlights := make([]types.LegislativeItem, 0, len(matters))

	for _, m := range matters {
		switch typeCode := textutil.Normalize(m.TypeCode); {
		case typeCode == "PEC":
			score += w.RelatorAmendment
			amendments++
			highlights = append(highlights, m)
		case lawTypeCodes[typeCode]:
			score += w.RelatorLaw
			laws++
			highlights = append(highlights, m)
		default:
			score += w.RelatorOther
		}
	}

	if len(highlights) > 3 {
		highlights = highlights[:3]
	}

	return RelatorScore{
		Score:      score,
		Summary:    fmt.Sprintf("%d PECs, %d Leis", amendments, laws),
		Highlights: highlights,
	}
}

// ComputeCommitteeInfluence scores memberships in strategic committees.
// A committee is strategic when its acronym matches the fixed set exactly or
// its name contains one of the acronyms, which tolerates records that carry
// the full name where the acronym belongs.
func ComputeCommitteeInfluence(w Weights, memberships []types.CommitteeMembership) CommitteeScore {
	if len(memberships) == 0 {
		return CommitteeScore{Score: 0, Roles: []string{}, Label: "Nenhuma"}
	}

	score := 0
	seen := make(map[string]bool)
	roles := []string{}

	for _, m := range memberships {
		acronym := textutil.Normalize(m.Acronym)
		name := textutil.Normalize(m.Name)

		strategic := false
		for _, s := range strategicCommittees {
			if acronym == s || strings.Contains(name, s) {
				strategic = true
				break
			}
		}
		if !strategic {
			continue
		}

		pts := 0
		switch m.Role {
		case types.CommitteeFullMember:
			pts = w.CommitteeFull
		case types.CommitteeAlternate:
			pts = w.CommitteeAlternate
		}
		if m.IsChair {
			pts += w.CommitteeChairBonus
		}
		if pts == 0 {
			continue
		}

		score += pts

		display := m.Acronym
		if display == "" {
			display = "Comissão"
		}
		role := fmt.Sprintf("%s (%s)", display, m.RawRole)
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}

	label := "Baixa"
	switch {
	case score >= 200:
		label = "Alta Influência"
	case score >= 100:
		label = "Influente"
	case score > 0:
		label = "Participante"
	}

	return CommitteeScore{Score: score, Roles: roles, Label: label}
}

// ComputeOversightCount counts votes on appointment-confirmation matters
// (sabatinas), identified by the MSF type code.
func ComputeOversightCount(votes []types.VoteRecord) DerivedScore {
	if len(votes) == 0 {
		return DerivedScore{Score: 0, Label: "Nenhuma", Description: "Sem registros"}
	}

	count := 0
	for _, v := range votes {
		if textutil.Normalize(v.MatterTypeCode) == oversightTypeCode {
			count++
		}
	}

	label := "Baixa"
	switch {
	case count > 10:
		label = "Alta"
	case count > 5:
		label = "Média"
	}

	return DerivedScore{Score: count, Label: label, Description: "Autoridades avaliadas"}
}

// ComputeEfficiencyIndex relates a productivity score to total spending
// normalized to units of R$ 100.000. Zero expense means no data, and
// near-zero expense returns a ceiling sentinel instead of a distorted ratio.
func ComputeEfficiencyIndex(totalExpense float64, productivityScore int) EfficiencyIndex {
	if totalExpense == 0 {
		return EfficiencyIndex{Index: "N/A", Interpretation: "Sem dados de gasto"}
	}

	normalizedCost := totalExpense / 100000
	if normalizedCost < 0.1 {
		return EfficiencyIndex{Index: "Máx", Interpretation: "Altíssima"}
	}

	// Tiers apply to the one-decimal figure shown to the user, so an index
	// of 10.04 reads 10.0 and stays "Regular".
	index := math.Round(float64(productivityScore)/normalizedCost*10) / 10

	interpretation := "Regular"
	switch {
	case index > 10:
		interpretation = "Alta"
	case index < 2:
		interpretation = "Baixa"
	}

	return EfficiencyIndex{
		Index:          strconv.FormatFloat(index, 'f', 1, 64),
		Interpretation: interpretation,
	}
}

