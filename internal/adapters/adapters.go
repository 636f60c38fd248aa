// Package adapters maps the two government upstreams into the canonical
// records the scoring engine consumes. Each adapter is specific to one
// upstream's field names and nesting; nothing outside this package sees a
// native upstream shape.
//
// Failure policy: any single call failure degrades to an empty result. Only
// the identity fetch raises, and that error is terminal for the view.
package adapters

import (
	"context"
	"strings"

	"github.com/onca-labs/fiscaliza/internal/textutil"
	"github.com/onca-labs/fiscaliza/internal/types"
)

// Source is the common surface both chamber adapters expose. The scoring
// and profile layers depend on this interface, never on an upstream shape.
type Source interface {
	Chamber() types.Chamber
	ListMembers(ctx context.Context) ([]types.PoliticianSummary, error)
	FetchMemberSummary(ctx context.Context, id int) (types.PoliticianSummary, error)
	FetchMemberBills(ctx context.Context, id int, years []int) []types.LegislativeItem
	FetchMemberCommittees(ctx context.Context, id int) []types.CommitteeMembership
	FetchMemberAttendance(ctx context.Context, id int, years []int) []types.AttendanceEvent
	FetchMemberExpenses(ctx context.Context, id int, years []int) []types.ExpenseLine
}

var (
	_ Source = (*CamaraAdapter)(nil)
	_ Source = (*SenadoAdapter)(nil)
)

// committeeFromRole builds a canonical membership from a free-text
// participation role ("Titular", "Suplente", sometimes with "Presidente"
// embedded). Unrecognized role text yields a membership with no seat role,
// which the scoring engine treats as zero weight.
func committeeFromRole(acronym, name, rawRole string) types.CommitteeMembership {
	normalized := textutil.Normalize(rawRole)

	m := types.CommitteeMembership{
		Acronym: acronym,
		Name:    name,
		RawRole: rawRole,
	}
	switch {
	case strings.Contains(normalized, "TITULAR"):
		m.Role = types.CommitteeFullMember
	case strings.Contains(normalized, "SUPLENTE"):
		m.Role = types.CommitteeAlternate
	}
	m.IsChair = strings.Contains(normalized, "PRESIDENTE")
	return m
}
