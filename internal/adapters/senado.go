package adapters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/onca-labs/fiscaliza/internal/errors"
	"github.com/onca-labs/fiscaliza/internal/resilience"
	"github.com/onca-labs/fiscaliza/internal/shape"
	"github.com/onca-labs/fiscaliza/internal/textutil"
	"github.com/onca-labs/fiscaliza/internal/types"
)

// DefaultSenadoBaseURL is the open-data API of the upper house.
const DefaultSenadoBaseURL = "https://legis.senado.leg.br/dadosabertos"

// The Senado API serializes a legacy XML document as JSON: deeply nested
// PascalCase keys, numbers as strings, and single-item lists collapsed to
// bare objects. Every list boundary below goes through shape.OneOrMany.

type senadoIdentificacao struct {
	CodigoParlamentar       string `json:"CodigoParlamentar"`
	NomeParlamentar         string `json:"NomeParlamentar"`
	SiglaPartidoParlamentar string `json:"SiglaPartidoParlamentar"`
	UfParlamentar           string `json:"UfParlamentar"`
	URLFotoParlamentar      string `json:"UrlFotoParlamentar"`
	EmailParlamentar        string `json:"EmailParlamentar"`
}

type senadoParlamentar struct {
	Identificacao senadoIdentificacao `json:"IdentificacaoParlamentar"`
}

type senadoListaEnvelope struct {
	Lista struct {
		Parlamentares struct {
			Parlamentar shape.OneOrMany[senadoParlamentar] `json:"Parlamentar"`
		} `json:"Parlamentares"`
	} `json:"ListaParlamentarEmExercicio"`
}

type senadoDetalheEnvelope struct {
	Detalhe struct {
		Parlamentar shape.OneOrMany[senadoParlamentar] `json:"Parlamentar"`
	} `json:"DetalheParlamentar"`
}

type senadoIdentMateria struct {
	CodigoMateria       string `json:"CodigoMateria"`
	SiglaSubtipoMateria string `json:"SiglaSubtipoMateria"`
	NumeroMateria       string `json:"NumeroMateria"`
	AnoMateria          string `json:"AnoMateria"`
}

type senadoMateria struct {
	Identificacao *senadoIdentMateria `json:"IdentificacaoMateria"`
	EmentaMateria string              `json:"EmentaMateria"`
}

// senadoRelatoria tolerates both envelope revisions: new payloads nest the
// matter under "Materia", old ones put its fields directly on the item.
type senadoRelatoria struct {
	Materia       *senadoMateria      `json:"Materia"`
	Identificacao *senadoIdentMateria `json:"IdentificacaoMateria"`
	EmentaMateria string              `json:"EmentaMateria"`
}

func (r senadoRelatoria) materia() senadoMateria {
	if r.Materia != nil {
		return *r.Materia
	}
	return senadoMateria{Identificacao: r.Identificacao, EmentaMateria: r.EmentaMateria}
}

type senadoRelatoriasEnvelope struct {
	MateriasRelatadas *struct {
		Materia shape.OneOrMany[senadoRelatoria] `json:"Materia"`
	} `json:"MateriasRelatadas"`
	Relatorias *struct {
		Materia shape.OneOrMany[senadoRelatoria] `json:"Materia"`
	} `json:"Relatorias"`
}

type senadoVotacao struct {
	Materia          *senadoMateria      `json:"Materia"`
	Identificacao    *senadoIdentMateria `json:"IdentificacaoMateria"`
	DescricaoVotacao string              `json:"DescricaoVotacao"`
}

type senadoVotacoesEnvelope struct {
	VotacoesParlamentar struct {
		Parlamentar struct {
			Votacoes struct {
				Votacao shape.OneOrMany[senadoVotacao] `json:"Votacao"`
			} `json:"Votacoes"`
		} `json:"Parlamentar"`
	} `json:"VotacoesParlamentar"`
}

type senadoMembroComissao struct {
	IdentificacaoComissao struct {
		SiglaComissao string `json:"SiglaComissao"`
		NomeComissao  string `json:"NomeComissao"`
	} `json:"IdentificacaoComissao"`
	DescricaoParticipacao string `json:"DescricaoParticipacao"`
}

type senadoComissoesEnvelope struct {
	MembroComissaoParlamentar struct {
		Parlamentar struct {
			MembroComissao shape.OneOrMany[senadoMembroComissao] `json:"MembroComissao"`
		} `json:"Parlamentar"`
	} `json:"MembroComissaoParlamentar"`
}

// senadoDespesa lines carry amounts as locale-formatted strings with a comma
// decimal separator. The endpoint and its field names have drifted across
// upstream revisions, so absence of any field degrades to zero.
type senadoDespesa struct {
	TipoDespesa string `json:"TipoDespesa"`
	Valor       string `json:"ValorReembolsado"`
	Mes         string `json:"Mes"`
	Ano         string `json:"Ano"`
}

type senadoDespesasEnvelope struct {
	DespesasCEAPS *struct {
		Despesas struct {
			Despesa shape.OneOrMany[senadoDespesa] `json:"Despesa"`
		} `json:"Despesas"`
	} `json:"DespesasCEAPS"`
}

// SenadoAdapter fetches and normalizes upper-house data.
type SenadoAdapter struct {
	baseURL string
	client  *resilience.UpstreamClient
}

// NewSenadoAdapter creates the upper-house adapter. An empty baseURL selects
// the public open-data host.
func NewSenadoAdapter(baseURL string) *SenadoAdapter {
	return NewSenadoAdapterWithTimeout(baseURL, 30*time.Second)
}

// NewSenadoAdapterWithTimeout creates the adapter with an explicit
// per-request timeout.
func NewSenadoAdapterWithTimeout(baseURL string, timeout time.Duration) *SenadoAdapter {
	if baseURL == "" {
		baseURL = DefaultSenadoBaseURL
	}
	return &SenadoAdapter{
		baseURL: baseURL,
		client:  resilience.NewUpstreamClient(resilience.ServiceSenado, timeout),
	}
}

// OnResult registers an observer for every upstream request outcome.
func (a *SenadoAdapter) OnResult(fn resilience.CallObserver) {
	a.client.OnResult(fn)
}

// Chamber identifies this adapter's house.
func (a *SenadoAdapter) Chamber() types.Chamber {
	return types.ChamberUpper
}

// Close releases the adapter's idle connections.
func (a *SenadoAdapter) Close() {
	a.client.Close()
}

// jsonPath injects the ".json" suffix before the query string. Without it
// the upstream answers XML regardless of the Accept header.
func jsonPath(endpoint string) string {
	if strings.Contains(endpoint, ".json") {
		return endpoint
	}
	path, query, hasQuery := strings.Cut(endpoint, "?")
	if hasQuery {
		return path + ".json?" + query
	}
	return path + ".json"
}

func fetchSenado[T any](ctx context.Context, a *SenadoAdapter, endpoint string) (T, error) {
	var zero T

	resp, err := a.client.Get(ctx, a.baseURL+jsonPath(endpoint))
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return zero, errors.NewExternalAPIError("senado", fmt.Errorf("status %d on %s", resp.StatusCode, endpoint))
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, errors.NewExternalAPIError("senado", fmt.Errorf("decode %s: %w", endpoint, err))
	}
	return out, nil
}

// ListMembers fetches the senators currently in office.
func (a *SenadoAdapter) ListMembers(ctx context.Context) ([]types.PoliticianSummary, error) {
	envelope, err := fetchSenado[senadoListaEnvelope](ctx, a, "/senador/lista/atual")
	if err != nil {
		return nil, err
	}

	parlamentares := envelope.Lista.Parlamentares.Parlamentar
	if len(parlamentares) == 0 {
		return nil, errors.NewExternalAPIError("senado", fmt.Errorf("senator listing came back empty"))
	}

	out := make([]types.PoliticianSummary, 0, len(parlamentares))
	for _, p := range parlamentares {
		out = append(out, a.toSummary(p.Identificacao))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SearchMembers filters the full listing by normalized name substring; the
// upstream has no server-side name search.
func (a *SenadoAdapter) SearchMembers(ctx context.Context, name string) []types.PoliticianSummary {
	members, err := a.ListMembers(ctx)
	if err != nil {
		slog.Warn("senado member search failed", "name", name, "error", err)
		return []types.PoliticianSummary{}
	}

	needle := textutil.Normalize(name)
	out := make([]types.PoliticianSummary, 0)
	for _, m := range members {
		if strings.Contains(textutil.Normalize(m.Name), needle) {
			out = append(out, m)
		}
	}
	return out
}

// FetchMemberSummary fetches a senator's identity. This is the terminal
// call for the profile view.
func (a *SenadoAdapter) FetchMemberSummary(ctx context.Context, id int) (types.PoliticianSummary, error) {
	envelope, err := fetchSenado[senadoDetalheEnvelope](ctx, a, fmt.Sprintf("/senador/%d", id))
	if err != nil {
		return types.PoliticianSummary{}, errors.NewNotFoundError(
			fmt.Sprintf("senador %d não encontrado", id), err)
	}

	parlamentar := envelope.Detalhe.Parlamentar
	if len(parlamentar) == 0 || parlamentar[0].Identificacao.CodigoParlamentar == "" {
		return types.PoliticianSummary{}, errors.NewNotFoundError(
			fmt.Sprintf("senador %d não encontrado", id), nil)
	}
	return a.toSummary(parlamentar[0].Identificacao), nil
}

// FetchMemberReports collects matters where the senator is rapporteur across
// the given years, one parallel branch per year, each settling to empty on
// failure. Both envelope revisions are accepted.
func (a *SenadoAdapter) FetchMemberReports(ctx context.Context, id int, years []int) []types.LegislativeItem {
	results := make([][]types.LegislativeItem, len(years))

	g, gctx := errgroup.WithContext(ctx)
	for i, year := range years {
		g.Go(func() error {
			results[i] = a.fetchReportsByYear(gctx, id, year)
			return nil
		})
	}
	g.Wait()

	var all []types.LegislativeItem
	for _, r := range results {
		all = append(all, r...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Year > all[j].Year })
	return all
}

func (a *SenadoAdapter) fetchReportsByYear(ctx context.Context, id, year int) []types.LegislativeItem {
	envelope, err := fetchSenado[senadoRelatoriasEnvelope](ctx, a, fmt.Sprintf("/senador/%d/relatorias?ano=%d", id, year))
	if err != nil {
		slog.Debug("senado relatorias fetch failed", "id", id, "year", year, "error", err)
		return []types.LegislativeItem{}
	}

	var relatorias shape.OneOrMany[senadoRelatoria]
	switch {
	case envelope.MateriasRelatadas != nil:
		relatorias = envelope.MateriasRelatadas.Materia
	case envelope.Relatorias != nil:
		relatorias = envelope.Relatorias.Materia
	}

	out := make([]types.LegislativeItem, 0, len(relatorias))
	for _, r := range relatorias {
		materia := r.materia()
		item := types.LegislativeItem{
			Summary: materia.EmentaMateria,
			Role:    types.RoleRapporteur,
		}
		if ident := materia.Identificacao; ident != nil {
			item.ID = atoiSafe(ident.CodigoMateria)
			item.TypeCode = ident.SiglaSubtipoMateria
			item.Number = atoiSafe(ident.NumeroMateria)
			item.Year = atoiSafe(ident.AnoMateria)
		}
		out = append(out, item)
	}
	return out
}

// FetchMemberBills is the Source-interface alias for relatorias: the upper
// house exposes rapporteur assignments, not an authored-bill search.
func (a *SenadoAdapter) FetchMemberBills(ctx context.Context, id int, years []int) []types.LegislativeItem {
	return a.FetchMemberReports(ctx, id, years)
}

// FetchMemberVotes collects voting records across the given years.
func (a *SenadoAdapter) FetchMemberVotes(ctx context.Context, id int, years []int) []types.VoteRecord {
	results := make([][]types.VoteRecord, len(years))

	g, gctx := errgroup.WithContext(ctx)
	for i, year := range years {
		g.Go(func() error {
			results[i] = a.fetchVotesByYear(gctx, id, year)
			return nil
		})
	}
	g.Wait()

	var all []types.VoteRecord
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (a *SenadoAdapter) fetchVotesByYear(ctx context.Context, id, year int) []types.VoteRecord {
	envelope, err := fetchSenado[senadoVotacoesEnvelope](ctx, a, fmt.Sprintf("/senador/%d/votacoes?ano=%d", id, year))
	if err != nil {
		slog.Debug("senado votacoes fetch failed", "id", id, "year", year, "error", err)
		return []types.VoteRecord{}
	}

	votacoes := envelope.VotacoesParlamentar.Parlamentar.Votacoes.Votacao
	out := make([]types.VoteRecord, 0, len(votacoes))
	for _, v := range votacoes {
		ident := v.Identificacao
		if v.Materia != nil && v.Materia.Identificacao != nil {
			ident = v.Materia.Identificacao
		}
		record := types.VoteRecord{Description: v.DescricaoVotacao}
		if ident != nil {
			record.MatterTypeCode = ident.SiglaSubtipoMateria
			record.MatterNumber = atoiSafe(ident.NumeroMateria)
			record.MatterYear = atoiSafe(ident.AnoMateria)
		}
		out = append(out, record)
	}
	return out
}

// FetchMemberCommittees collects current committee seats.
func (a *SenadoAdapter) FetchMemberCommittees(ctx context.Context, id int) []types.CommitteeMembership {
	envelope, err := fetchSenado[senadoComissoesEnvelope](ctx, a, fmt.Sprintf("/senador/%d/comissoes", id))
	if err != nil {
		slog.Debug("senado comissoes fetch failed", "id", id, "error", err)
		return []types.CommitteeMembership{}
	}

	membros := envelope.MembroComissaoParlamentar.Parlamentar.MembroComissao
	out := make([]types.CommitteeMembership, 0, len(membros))
	for _, m := range membros {
		out = append(out, committeeFromRole(
			m.IdentificacaoComissao.SiglaComissao,
			m.IdentificacaoComissao.NomeComissao,
			m.DescricaoParticipacao))
	}
	return out
}

// FetchMemberAttendance returns empty: the upper house publishes no event
// attendance feed. Votes stand in as the senator activity signal.
func (a *SenadoAdapter) FetchMemberAttendance(ctx context.Context, id int, years []int) []types.AttendanceEvent {
	return []types.AttendanceEvent{}
}

// FetchMemberExpenses collects CEAPS indemnity lines. The upstream has
// repeatedly renamed and partially removed this endpoint; any failure or
// absent field degrades to empty/zero rather than an error.
func (a *SenadoAdapter) FetchMemberExpenses(ctx context.Context, id int, years []int) []types.ExpenseLine {
	var all []types.ExpenseLine
	for _, year := range years {
		envelope, err := fetchSenado[senadoDespesasEnvelope](ctx, a, fmt.Sprintf("/senador/%d/despesas_ceaps?ano=%d", id, year))
		if err != nil {
			slog.Debug("senado despesas fetch failed", "id", id, "year", year, "error", err)
			continue
		}
		if envelope.DespesasCEAPS == nil {
			continue
		}
		for _, d := range envelope.DespesasCEAPS.Despesas.Despesa {
			all = append(all, types.ExpenseLine{
				Category:  d.TipoDespesa,
				NetAmount: textutil.ParseBRDecimal(d.Valor),
				Month:     atoiSafe(d.Mes),
				Year:      atoiSafe(d.Ano),
			})
		}
	}
	return all
}

func (a *SenadoAdapter) toSummary(ident senadoIdentificacao) types.PoliticianSummary {
	return types.PoliticianSummary{
		ID:       atoiSafe(ident.CodigoParlamentar),
		Name:     ident.NomeParlamentar,
		Party:    ident.SiglaPartidoParlamentar,
		State:    ident.UfParlamentar,
		PhotoURL: ident.URLFotoParlamentar,
		Email:    ident.EmailParlamentar,
		Chamber:  types.ChamberUpper,
	}
}

// atoiSafe parses the upstream's stringly-typed numbers, returning 0 for
// anything unparseable.
func atoiSafe(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
