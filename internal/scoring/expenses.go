package scoring

import (
	"sort"
	"strings"

	"github.com/onca-labs/fiscaliza/internal/textutil"
	"github.com/onca-labs/fiscaliza/internal/types"
)

// ExpenseFlags are boolean findings over a member's expense history used for
// profile badges.
type ExpenseFlags struct {
	UsesVehicle   bool `json:"usaCarro"`
	UsesPromotion bool `json:"usaDivulgacao"`
}

// AnalyzeExpenses flags spending on vehicle rental/fuel and on
// self-promotion, matched by keywords in the expense category.
func AnalyzeExpenses(lines []types.ExpenseLine) ExpenseFlags {
	var flags ExpenseFlags
	for _, l := range lines {
		cat := textutil.Normalize(l.Category)
		if strings.Contains(cat, "VEICULO") || strings.Contains(cat, "COMBUSTIVEL") {
			flags.UsesVehicle = true
		}
		if strings.Contains(cat, "DIVULGACAO") {
			flags.UsesPromotion = true
		}
	}
	return flags
}

// ExpenseGroup is one category's accumulated spend.
type ExpenseGroup struct {
	Category string  `json:"name"`
	Total    float64 `json:"value"`
}

// ExpenseSummary is the per-period expense rollup for a profile view.
type ExpenseSummary struct {
	Total  float64        `json:"total"`
	Groups []ExpenseGroup `json:"grupos"`
}

// SummarizeExpenses filters lines to the given month (0 means all months),
// totals them, and groups by category keeping the top 6 categories by spend.
// Non-positive lines (reimbursements) count in the total but not the groups.
func SummarizeExpenses(lines []types.ExpenseLine, month int) ExpenseSummary {
	groups := map[string]float64{}
	total := 0.0

	for _, l := range lines {
		if month != 0 && l.Month != month {
			continue
		}
		total += l.NetAmount
		if l.NetAmount > 0 {
			groups[l.Category] += l.NetAmount
		}
	}

	out := make([]ExpenseGroup, 0, len(groups))
	for cat, v := range groups {
		out = append(out, ExpenseGroup{Category: cat, Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > 6 {
		out = out[:6]
	}

	return ExpenseSummary{Total: total, Groups: out}
}

// TotalExpenses sums net amounts across all lines.
func TotalExpenses(lines []types.ExpenseLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.NetAmount
	}
	return total
}
