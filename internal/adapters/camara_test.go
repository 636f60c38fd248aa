package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onca-labs/fiscaliza/internal/errors"
	"github.com/onca-labs/fiscaliza/internal/resilience"
	"github.com/onca-labs/fiscaliza/internal/types"
)

// resetBreakers clears breaker state shared through the global registry so
// failure-path tests don't leak into each other.
func resetBreakers() {
	resilience.GetBreaker(resilience.ServiceCamara, resilience.BreakerConfig{}).Reset()
	resilience.GetBreaker(resilience.ServiceSenado, resilience.BreakerConfig{}).Reset()
}

func TestCamaraListMembersDeduplicatesAndSettles(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("pagina")
		switch page {
		case "1":
			fmt.Fprint(w, `{"dados":[
				{"id":1,"nome":"Ana Braga","siglaPartido":"AAA","siglaUf":"SP","urlFoto":"u1"},
				{"id":2,"nome":"Bruno Costa","siglaPartido":"BBB","siglaUf":"RJ","urlFoto":"u2"}]}`)
		case "2":
			fmt.Fprint(w, `{"dados":[
				{"id":2,"nome":"Bruno Costa Atualizado","siglaPartido":"BBB","siglaUf":"RJ","urlFoto":"u2b"}]}`)
		case "3":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprint(w, `{"dados":[]}`)
		}
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got, err := a.ListMembers(context.Background())

	require.NoError(t, err, "a failing page must not abort the listing")
	require.Len(t, got, 2)
	assert.Equal(t, "Ana Braga", got[0].Name, "sorted by name")
	assert.Equal(t, "Bruno Costa Atualizado", got[1].Name, "last write wins on id collision")
	assert.Equal(t, types.ChamberLower, got[0].Chamber)
}

func TestCamaraListMembersAllPagesEmpty(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"dados":[]}`)
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	_, err := a.ListMembers(context.Background())
	assert.Error(t, err)
}

func TestCamaraFetchMemberSummaryUsesUltimoStatus(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/deputados/204554", r.URL.Path)
		fmt.Fprint(w, `{"dados":{"id":204554,"nomeCivil":"Maria da Silva Santos",
			"ultimoStatus":{"id":204554,"nome":"Maria Silva","siglaPartido":"CCC","siglaUf":"BA","urlFoto":"foto","email":"m@x.br"}}}`)
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got, err := a.FetchMemberSummary(context.Background(), 204554)

	require.NoError(t, err)
	assert.Equal(t, 204554, got.ID)
	assert.Equal(t, "Maria Silva", got.Name)
	assert.Equal(t, "CCC", got.Party)
	assert.Equal(t, "BA", got.State)
}

func TestCamaraFetchMemberSummaryNotFoundIsTerminal(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	_, err := a.FetchMemberSummary(context.Background(), 99)

	require.Error(t, err)
	appErr := errors.ToAppError(err)
	assert.Equal(t, errors.CategoryNotFound, appErr.Category)
}

func TestCamaraFetchMemberBills(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "10", q.Get("idDeputadoAutor"))
		switch q.Get("siglaTipo") {
		case "PL":
			fmt.Fprint(w, `{"dados":[{"id":100,"siglaTipo":"PL","numero":123,"ano":2024,"ementa":"Reforma do ensino"}]}`)
		case "PEC":
			fmt.Fprint(w, `{"dados":[{"id":200,"siglaTipo":"PEC","numero":7,"ano":2023,"ementa":"Altera a Constituição"}]}`)
		default:
			fmt.Fprint(w, `{"dados":[]}`)
		}
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got := a.FetchMemberBills(context.Background(), 10, []int{2023, 2024})

	require.Len(t, got, 4, "PL and PEC per year")
	assert.Equal(t, 2024, got[0].Year, "sorted year descending")
	assert.Equal(t, types.RoleAuthor, got[0].Role)
}

func TestCamaraFetchMemberBillsSettlesToEmpty(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got := a.FetchMemberBills(context.Background(), 10, []int{2024})
	assert.Empty(t, got, "upstream failure degrades to empty, never an error")
}

func TestCamaraFetchMemberExpensesPaginates(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pagina") {
		case "1":
			w.Write(fullExpensePage())
		case "2":
			fmt.Fprint(w, `{"dados":[{"tipoDespesa":"COMBUSTÍVEIS","valorLiquido":300.5,"mes":2,"ano":2024}]}`)
		default:
			fmt.Fprint(w, `{"dados":[]}`)
		}
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got := a.FetchMemberExpenses(context.Background(), 10, []int{2024})

	require.Len(t, got, 101, "full first page plus short second page")
	assert.Equal(t, "COMBUSTÍVEIS", got[100].Category)
	assert.InDelta(t, 300.5, got[100].NetAmount, 0.001)
}

func TestCamaraFetchMemberExpensesStopsAtPageCap(t *testing.T) {
	resetBreakers()

	var pagesServed int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pagesServed, 1)
		w.Write(fullExpensePage())
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got := a.FetchMemberExpenses(context.Background(), 10, []int{2024})

	assert.Len(t, got, 500, "pagination stops at the cap even when pages stay full")
	assert.Equal(t, int32(5), atomic.LoadInt32(&pagesServed))
}

func fullExpensePage() []byte {
	out := []byte(`{"dados":[`)
	for i := 0; i < 100; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, []byte(`{"tipoDespesa":"PASSAGEM AÉREA","valorLiquido":100,"mes":1,"ano":2024}`)...)
	}
	return append(out, []byte(`]}`)...)
}

func TestCamaraFetchMemberAttendanceStatusFallback(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"dados":[
			{"descricaoTipo":"Sessão Deliberativa","situacao":"Encerrada","descricaoSituacao":"Sessão Encerrada"},
			{"descricaoTipo":"Reunião","descricaoSituacao":"Cancelada"}]}`)
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got := a.FetchMemberAttendance(context.Background(), 10, []int{2024})

	require.Len(t, got, 2)
	assert.Equal(t, "Encerrada", got[0].Status, "situacao wins when both fields are set")
	assert.Equal(t, "Cancelada", got[1].Status, "falls back to descricaoSituacao")
}

func TestCamaraSearchMembers(t *testing.T) {
	resetBreakers()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "maria", r.URL.Query().Get("nome"))
		fmt.Fprint(w, `{"dados":[{"id":5,"nome":"Maria Souza","siglaPartido":"DDD","siglaUf":"MG"}]}`)
	}))
	defer srv.Close()

	a := NewCamaraAdapter(srv.URL)
	defer a.Close()

	got := a.SearchMembers(context.Background(), "maria")

	require.Len(t, got, 1)
	assert.Equal(t, "Maria Souza", got[0].Name)
}
