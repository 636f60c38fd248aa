// Package profile assembles complete politician views: it fans out to the
// source adapters, joins the branches with the settle policy, and runs the
// scoring engine over whatever data survived.
package profile

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onca-labs/fiscaliza/internal/adapters"
	"github.com/onca-labs/fiscaliza/internal/scoring"
	"github.com/onca-labs/fiscaliza/internal/types"
)

// legislatureStart is the first year of the current term.
const legislatureStart = 2023

// DefaultYears covers the current term up to the present year.
func DefaultYears() []int {
	var years []int
	for y := legislatureStart; y <= time.Now().Year(); y++ {
		years = append(years, y)
	}
	return years
}

// Service builds profiles from both chambers.
type Service struct {
	camara  *adapters.CamaraAdapter
	senado  *adapters.SenadoAdapter
	weights scoring.Weights
}

// NewService wires the two adapters with the given weight table.
func NewService(camara *adapters.CamaraAdapter, senado *adapters.SenadoAdapter, weights scoring.Weights) *Service {
	return &Service{camara: camara, senado: senado, weights: weights}
}

// DeputyKPIs are the headline counters on a deputy profile.
type DeputyKPIs struct {
	TotalPL  int `json:"totalPL"`
	TotalPEC int `json:"totalPEC"`
}

// DeputyProfile is the full lower-house member view.
type DeputyProfile struct {
	Summary      types.PoliticianSummary            `json:"resumo"`
	Presence     scoring.DerivedScore               `json:"presenca"`
	Speeches     scoring.DerivedScore               `json:"discursos"`
	KPIs         DeputyKPIs                         `json:"kpis"`
	ComplexBills []types.LegislativeItem            `json:"projetosComplexos"`
	Thematic     map[string][]types.LegislativeItem `json:"projetosTematicos"`
	Expenses     scoring.ExpenseSummary             `json:"despesas"`
	ExpenseFlags scoring.ExpenseFlags               `json:"analiseGastos"`
	Efficiency   scoring.EfficiencyIndex            `json:"eficiencia"`
	Years        []int                              `json:"anos"`
}

// DeputyProfile builds a deputy's view for the given years. The identity
// fetch is terminal; every other branch settles to empty on failure, so a
// partially degraded upstream still yields a usable profile.
func (s *Service) DeputyProfile(ctx context.Context, id int, years []int) (*DeputyProfile, error) {
	summary, err := s.camara.FetchMemberSummary(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		bills    []types.LegislativeItem
		events   []types.AttendanceEvent
		speeches []types.Speech
		expenses []types.ExpenseLine
	)

	// Branches swallow their own failures inside the adapter; the group
	// only orders the join.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bills = s.camara.FetchMemberBills(gctx, id, years)
		return nil
	})
	g.Go(func() error {
		events = s.camara.FetchMemberAttendance(gctx, id, years)
		return nil
	})
	g.Go(func() error {
		speeches = s.camara.FetchMemberSpeeches(gctx, id, years)
		return nil
	})
	g.Go(func() error {
		expenses = s.camara.FetchMemberExpenses(gctx, id, years)
		return nil
	})
	g.Wait()

	presence := scoring.ComputeAssiduity(events)
	expenseSummary := scoring.SummarizeExpenses(expenses, 0)

	kpis := DeputyKPIs{}
	for _, b := range bills {
		switch b.TypeCode {
		case "PEC", "PLP":
			kpis.TotalPEC++
		default:
			kpis.TotalPL++
		}
	}

	return &DeputyProfile{
		Summary:      summary,
		Presence:     presence,
		Speeches:     scoring.CountSpeeches(speeches),
		KPIs:         kpis,
		ComplexBills: scoring.FilterComplexBills(bills),
		Thematic:     scoring.GroupBillsByCategory(bills),
		Expenses:     expenseSummary,
		ExpenseFlags: scoring.AnalyzeExpenses(expenses),
		Efficiency:   scoring.ComputeEfficiencyIndex(expenseSummary.Total, presence.Score),
		Years:        years,
	}, nil
}

// SenatorProfile is the full upper-house member view.
type SenatorProfile struct {
	Summary    types.PoliticianSummary            `json:"resumo"`
	Relator    scoring.RelatorScore               `json:"relatorias"`
	Committees scoring.CommitteeScore             `json:"comissoes"`
	Oversight  scoring.DerivedScore               `json:"sabatinas"`
	Thematic   map[string][]types.LegislativeItem `json:"materiasTematicas"`
	Expenses   scoring.ExpenseSummary             `json:"despesas"`
	Efficiency scoring.EfficiencyIndex            `json:"eficiencia"`
	Years      []int                              `json:"anos"`
}

// SenatorProfile builds a senator's view for the given years under the same
// failure policy as DeputyProfile.
func (s *Service) SenatorProfile(ctx context.Context, id int, years []int) (*SenatorProfile, error) {
	summary, err := s.senado.FetchMemberSummary(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		reports    []types.LegislativeItem
		votes      []types.VoteRecord
		committees []types.CommitteeMembership
		expenses   []types.ExpenseLine
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reports = s.senado.FetchMemberReports(gctx, id, years)
		return nil
	})
	g.Go(func() error {
		votes = s.senado.FetchMemberVotes(gctx, id, years)
		return nil
	})
	g.Go(func() error {
		committees = s.senado.FetchMemberCommittees(gctx, id)
		return nil
	})
	g.Go(func() error {
		expenses = s.senado.FetchMemberExpenses(gctx, id, years)
		return nil
	})
	g.Wait()

	relator := scoring.ComputeRelatorScore(s.weights, reports)
	expenseSummary := scoring.SummarizeExpenses(expenses, 0)

	return &SenatorProfile{
		Summary:    summary,
		Relator:    relator,
		Committees: scoring.ComputeCommitteeInfluence(s.weights, committees),
		Oversight:  scoring.ComputeOversightCount(votes),
		Thematic:   scoring.GroupBillsByCategory(dedupeByID(reports)),
		Expenses:   expenseSummary,
		Efficiency: scoring.ComputeEfficiencyIndex(expenseSummary.Total, relator.Score),
		Years:      years,
	}, nil
}

// dedupeByID drops repeated matters, keeping first occurrence. Relatorias
// across years may repeat the same matter id.
func dedupeByID(items []types.LegislativeItem) []types.LegislativeItem {
	seen := make(map[int]bool, len(items))
	out := make([]types.LegislativeItem, 0, len(items))
	for _, item := range items {
		if item.ID != 0 && seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

// ListDeputies returns the full lower-house listing.
func (s *Service) ListDeputies(ctx context.Context) ([]types.PoliticianSummary, error) {
	return s.camara.ListMembers(ctx)
}

// ListSenators returns the full upper-house listing.
func (s *Service) ListSenators(ctx context.Context) ([]types.PoliticianSummary, error) {
	return s.senado.ListMembers(ctx)
}

// Search queries both chambers in parallel and merges the results, each
// chamber settling to empty on failure. Output is sorted by name.
func (s *Service) Search(ctx context.Context, name string) []types.PoliticianSummary {
	var deputies, senators []types.PoliticianSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deputies = s.camara.SearchMembers(gctx, name)
		return nil
	})
	g.Go(func() error {
		senators = s.senado.SearchMembers(gctx, name)
		return nil
	})
	g.Wait()

	out := append(deputies, senators...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Chamber < out[j].Chamber
	})
	return out
}

// Analytics aggregates the lower-house composition by party, state and
// region.
func (s *Service) Analytics(ctx context.Context) (scoring.MemberAggregate, error) {
	members, err := s.camara.ListMembers(ctx)
	if err != nil {
		return scoring.MemberAggregate{}, err
	}
	return scoring.AggregateMembers(members), nil
}
