package adapters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/onca-labs/fiscaliza/internal/errors"
	"github.com/onca-labs/fiscaliza/internal/resilience"
	"github.com/onca-labs/fiscaliza/internal/types"
)

const (
	// DefaultCamaraBaseURL is the open-data API of the lower house.
	DefaultCamaraBaseURL = "https://dadosabertos.camara.leg.br/api/v2"

	// CurrentLegislature is the term listings default to.
	CurrentLegislature = 57

	pageSize = 100

	// maxPages caps pagination loops. The cap bounds latency against a
	// misbehaving paginator; it deliberately trades accuracy for speed.
	maxPages = 5

	// listingPages covers the whole chamber (513 seats plus active
	// alternates) in one parallel burst.
	listingPages = 6
)

// camaraEnvelope is the {dados: ...} wrapper every endpoint uses.
type camaraEnvelope[T any] struct {
	Dados T `json:"dados"`
}

type camaraDeputado struct {
	ID           int    `json:"id"`
	Nome         string `json:"nome"`
	SiglaPartido string `json:"siglaPartido"`
	SiglaUf      string `json:"siglaUf"`
	URLFoto      string `json:"urlFoto"`
	Email        string `json:"email"`
}

// camaraDeputadoDetail nests the current facts under ultimoStatus; top-level
// fields are stale for members who changed party mid-term.
type camaraDeputadoDetail struct {
	ID           int             `json:"id"`
	NomeCivil    string          `json:"nomeCivil"`
	UltimoStatus *camaraDeputado `json:"ultimoStatus"`
}

type camaraProposicao struct {
	ID        int    `json:"id"`
	SiglaTipo string `json:"siglaTipo"`
	Numero    int    `json:"numero"`
	Ano       int    `json:"ano"`
	Ementa    string `json:"ementa"`
}

type camaraEvento struct {
	DescricaoTipo     string `json:"descricaoTipo"`
	DescricaoSituacao string `json:"descricaoSituacao"`
	Situacao          string `json:"situacao"`
	DataHoraInicio    string `json:"dataHoraInicio"`
}

type camaraDespesa struct {
	TipoDespesa  string  `json:"tipoDespesa"`
	ValorLiquido float64 `json:"valorLiquido"`
	Mes          int     `json:"mes"`
	Ano          int     `json:"ano"`
}

type camaraDiscurso struct {
	Sumario        string `json:"sumario"`
	DataHoraInicio string `json:"dataHoraInicio"`
}

type camaraOrgao struct {
	SiglaOrgao string `json:"siglaOrgao"`
	NomeOrgao  string `json:"nomeOrgao"`
	Titulo     string `json:"titulo"`
}

// CamaraAdapter fetches and normalizes lower-house data. The upstream is the
// friendly one: flat camelCase JSON with real arrays.
type CamaraAdapter struct {
	baseURL string
	client  *resilience.UpstreamClient
}

// NewCamaraAdapter creates the lower-house adapter. An empty baseURL selects
// the public open-data host.
func NewCamaraAdapter(baseURL string) *CamaraAdapter {
	return NewCamaraAdapterWithTimeout(baseURL, 30*time.Second)
}

// NewCamaraAdapterWithTimeout creates the adapter with an explicit
// per-request timeout.
func NewCamaraAdapterWithTimeout(baseURL string, timeout time.Duration) *CamaraAdapter {
	if baseURL == "" {
		baseURL = DefaultCamaraBaseURL
	}
	return &CamaraAdapter{
		baseURL: baseURL,
		client:  resilience.NewUpstreamClient(resilience.ServiceCamara, timeout),
	}
}

// OnResult registers an observer for every upstream request outcome.
func (a *CamaraAdapter) OnResult(fn resilience.CallObserver) {
	a.client.OnResult(fn)
}

// Chamber identifies this adapter's house.
func (a *CamaraAdapter) Chamber() types.Chamber {
	return types.ChamberLower
}

// Close releases the adapter's idle connections.
func (a *CamaraAdapter) Close() {
	a.client.Close()
}

// fetch performs one GET and decodes the {dados: ...} envelope into out.
func fetchCamara[T any](ctx context.Context, a *CamaraAdapter, path string) (T, error) {
	var zero T

	resp, err := a.client.Get(ctx, a.baseURL+path)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return zero, errors.NewExternalAPIError("camara", fmt.Errorf("status %d on %s", resp.StatusCode, path))
	}

	var envelope camaraEnvelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return zero, errors.NewExternalAPIError("camara", fmt.Errorf("decode %s: %w", path, err))
	}
	return envelope.Dados, nil
}

// fetchCamaraPages pages through an endpoint until a short page or the page
// cap. Per-page failures end the loop with whatever was collected so far.
func fetchCamaraPages[T any](ctx context.Context, a *CamaraAdapter, path string) []T {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	var all []T
	for page := 1; page <= maxPages; page++ {
		pagePath := fmt.Sprintf("%s%spagina=%d&itens=%d", path, separator, page, pageSize)
		items, err := fetchCamara[[]T](ctx, a, pagePath)
		if err != nil {
			slog.Debug("camara pagination stopped on error", "path", path, "page", page, "error", err)
			break
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
		if len(items) < pageSize {
			break
		}
	}
	return all
}

// ListMembers fetches the whole chamber: six listing pages in parallel, page
// failures settling to empty, results deduplicated by id (last write wins)
// and re-sorted by name so output never depends on arrival order.
func (a *CamaraAdapter) ListMembers(ctx context.Context) ([]types.PoliticianSummary, error) {
	pages := make([][]camaraDeputado, listingPages)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < listingPages; i++ {
		g.Go(func() error {
			path := fmt.Sprintf("/deputados?idLegislatura=%d&ordem=ASC&ordenarPor=nome&pagina=%d&itens=%d",
				CurrentLegislature, i+1, pageSize)
			items, err := fetchCamara[[]camaraDeputado](gctx, a, path)
			if err != nil {
				slog.Warn("camara listing page failed", "page", i+1, "error", err)
				return nil
			}
			pages[i] = items
			return nil
		})
	}
	g.Wait()

	byID := make(map[int]camaraDeputado)
	for _, page := range pages {
		for _, d := range page {
			byID[d.ID] = d
		}
	}

	if len(byID) == 0 {
		return nil, errors.NewExternalAPIError("camara", fmt.Errorf("member listing came back empty"))
	}

	out := make([]types.PoliticianSummary, 0, len(byID))
	for _, d := range byID {
		out = append(out, a.toSummary(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SearchMembers queries the listing endpoint by (partial) name.
func (a *CamaraAdapter) SearchMembers(ctx context.Context, name string) []types.PoliticianSummary {
	path := fmt.Sprintf("/deputados?nome=%s&ordem=ASC&ordenarPor=nome&itens=%d", url.QueryEscape(name), pageSize)
	items, err := fetchCamara[[]camaraDeputado](ctx, a, path)
	if err != nil {
		slog.Warn("camara member search failed", "name", name, "error", err)
		return []types.PoliticianSummary{}
	}

	out := make([]types.PoliticianSummary, 0, len(items))
	for _, d := range items {
		out = append(out, a.toSummary(d))
	}
	return out
}

// FetchMemberSummary fetches a member's identity. This is the one terminal
// call: its failure surfaces as not-found for the whole profile view.
func (a *CamaraAdapter) FetchMemberSummary(ctx context.Context, id int) (types.PoliticianSummary, error) {
	detail, err := fetchCamara[camaraDeputadoDetail](ctx, a, fmt.Sprintf("/deputados/%d", id))
	if err != nil {
		return types.PoliticianSummary{}, errors.NewNotFoundError(
			fmt.Sprintf("deputado %d não encontrado", id), err)
	}

	d := camaraDeputado{ID: detail.ID, Nome: detail.NomeCivil}
	if detail.UltimoStatus != nil {
		d = *detail.UltimoStatus
		d.ID = detail.ID
	}
	if d.ID == 0 {
		return types.PoliticianSummary{}, errors.NewNotFoundError(
			fmt.Sprintf("deputado %d não encontrado", id), nil)
	}
	return a.toSummary(d), nil
}

// FetchMemberBills collects a member's authored PL and PEC bills across the
// given years, fetching both types of each year in parallel. Every branch
// settles to empty on failure.
func (a *CamaraAdapter) FetchMemberBills(ctx context.Context, id int, years []int) []types.LegislativeItem {
	type slot struct {
		year     int
		typeCode string
	}

	slots := make([]slot, 0, len(years)*2)
	for _, year := range years {
		slots = append(slots, slot{year, "PL"}, slot{year, "PEC"})
	}

	results := make([][]types.LegislativeItem, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range slots {
		g.Go(func() error {
			results[i] = a.fetchBillsByTypeYear(gctx, id, s.typeCode, s.year)
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

func (a *CamaraAdapter) fetchBillsByTypeYear(ctx context.Context, id int, typeCode string, year int) []types.LegislativeItem {
	path := fmt.Sprintf("/proposicoes?idDeputadoAutor=%d&siglaTipo=%s&ano=%d&itens=%d&ordem=DESC&ordenarPor=id",
		id, typeCode, year, pageSize)
	items, err := fetchCamara[[]camaraProposicao](ctx, a, path)
	if err != nil {
		slog.Debug("camara bills fetch failed", "id", id, "type", typeCode, "year", year, "error", err)
		return []types.LegislativeItem{}
	}

	out := make([]types.LegislativeItem, 0, len(items))
	for _, p := range items {
		out = append(out, types.LegislativeItem{
			ID:       p.ID,
			TypeCode: p.SiglaTipo,
			Number:   p.Numero,
			Year:     p.Ano,
			Summary:  p.Ementa,
			Role:     types.RoleAuthor,
		})
	}
	return out
}

// FetchMemberAttendance collects a member's events for the given years.
func (a *CamaraAdapter) FetchMemberAttendance(ctx context.Context, id int, years []int) []types.AttendanceEvent {
	var all []types.AttendanceEvent
	for _, year := range years {
		path := fmt.Sprintf("/deputados/%d/eventos?dataInicio=%d-01-01&dataFim=%d-12-31&ordem=ASC&ordenarPor=dataHoraInicio",
			id, year, year)
		for _, e := range fetchCamaraPages[camaraEvento](ctx, a, path) {
			status := e.Situacao
			if status == "" {
				status = e.DescricaoSituacao
			}
			all = append(all, types.AttendanceEvent{
				Description: e.DescricaoTipo,
				Status:      status,
				Date:        e.DataHoraInicio,
			})
		}
	}
	return all
}

// FetchMemberSpeeches collects plenary speeches for the given years.
func (a *CamaraAdapter) FetchMemberSpeeches(ctx context.Context, id int, years []int) []types.Speech {
	var all []types.Speech
	for _, year := range years {
		path := fmt.Sprintf("/deputados/%d/discursos?dataInicio=%d-01-01&dataFim=%d-12-31&ordenarPor=dataHoraInicio",
			id, year, year)
		for _, d := range fetchCamaraPages[camaraDiscurso](ctx, a, path) {
			all = append(all, types.Speech{Summary: d.Sumario, Date: d.DataHoraInicio})
		}
	}
	return all
}

// FetchMemberExpenses collects itemized quota expenses for the given years.
func (a *CamaraAdapter) FetchMemberExpenses(ctx context.Context, id int, years []int) []types.ExpenseLine {
	var all []types.ExpenseLine
	for _, year := range years {
		path := fmt.Sprintf("/deputados/%d/despesas?ano=%d&ordem=DESC&ordenarPor=dataDocumento", id, year)
		for _, d := range fetchCamaraPages[camaraDespesa](ctx, a, path) {
			all = append(all, types.ExpenseLine{
				Category:  d.TipoDespesa,
				NetAmount: d.ValorLiquido,
				Month:     d.Mes,
				Year:      d.Ano,
			})
		}
	}
	return all
}

// FetchMemberCommittees collects a member's standing-committee seats.
func (a *CamaraAdapter) FetchMemberCommittees(ctx context.Context, id int) []types.CommitteeMembership {
	items, err := fetchCamara[[]camaraOrgao](ctx, a, fmt.Sprintf("/deputados/%d/orgaos", id))
	if err != nil {
		slog.Debug("camara committees fetch failed", "id", id, "error", err)
		return []types.CommitteeMembership{}
	}

	out := make([]types.CommitteeMembership, 0, len(items))
	for _, o := range items {
		out = append(out, committeeFromRole(o.SiglaOrgao, o.NomeOrgao, o.Titulo))
	}
	return out
}

func (a *CamaraAdapter) toSummary(d camaraDeputado) types.PoliticianSummary {
	return types.PoliticianSummary{
		ID:       d.ID,
		Name:     d.Nome,
		Party:    d.SiglaPartido,
		State:    d.SiglaUf,
		PhotoURL: d.URLFoto,
		Email:    d.Email,
		Chamber:  types.ChamberLower,
	}
}
