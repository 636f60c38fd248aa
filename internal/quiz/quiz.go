// Package quiz implements the "political DNA" questionnaire flow as an
// explicit state machine. A session moves Intro -> Questioning(i) ->
// Computing -> Results through pure transition functions; the session
// store only records the current state.
//
// Affinity is a deterministic placeholder derived from the answer set
// and the member identity. It is stable for a given session but does
// not cross-reference real roll-call votes.
// TODO: replace the placeholder affinity with real vote cross-referencing.
package quiz

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/onca-labs/fiscaliza/internal/types"
)

// Answer is one of the three accepted responses to a question.
type Answer string

const (
	AnswerYes     Answer = "sim"
	AnswerNo      Answer = "nao"
	AnswerAbstain Answer = "abster"
)

func validAnswer(a Answer) bool {
	return a == AnswerYes || a == AnswerNo || a == AnswerAbstain
}

// Question is a single yes/no/abstain prompt.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"texto"`
}

// Questions returns the fixed questionnaire.
func Questions() []Question {
	return []Question{
		{ID: "q1", Text: "Você é a favor da privatização de todas as empresas estatais?"},
		{ID: "q2", Text: "O porte de armas para cidadãos comuns deveria ser ampliado?"},
		{ID: "q3", Text: "Você concorda com a redução da maioridade penal?"},
		{ID: "q4", Text: "O agronegócio deve ter menos restrições ambientais para expandir?"},
		{ID: "q5", Text: "Você apoia uma reforma tributária que unifique impostos e reduza a carga total?"},
		{ID: "q6", Text: "O ensino domiciliar (homeschooling) deve ser legalizado no Brasil?"},
		{ID: "q7", Text: "Você é a favor de mandatos políticos com limite de uma reeleição?"},
		{ID: "q8", Text: "O Estado deve intervir para controlar os preços de combustíveis e alimentos?"},
		{ID: "q9", Text: "Você concorda com a legalização do aborto?"},
		{ID: "q10", Text: "A exploração de minérios em terras indígenas deveria ser permitida?"},
	}
}

// Phase identifies where a session is in the flow.
type Phase string

const (
	PhaseIntro       Phase = "intro"
	PhaseQuestioning Phase = "questioning"
	PhaseComputing   Phase = "computing"
	PhaseResults     Phase = "results"
)

// State is an immutable snapshot of a quiz session. Transitions return
// a new State and never mutate the receiver.
type State struct {
	Phase    Phase
	Index    int
	Answers  map[string]Answer
	Outcomes []Match
}

// Match pairs a parliament member with a placeholder affinity score.
type Match struct {
	ID       int    `json:"id"`
	Name     string `json:"nome"`
	Party    string `json:"partido"`
	PhotoURL string `json:"foto"`
	Affinity int    `json:"afinidade"`
}

// NewState returns the initial Intro state.
func NewState() State {
	return State{Phase: PhaseIntro, Answers: map[string]Answer{}}
}

// Start transitions Intro into Questioning at the first question.
func Start(s State) (State, error) {
	if s.Phase != PhaseIntro {
		return s, fmt.Errorf("quiz: cannot start from phase %q", s.Phase)
	}
	next := s
	next.Phase = PhaseQuestioning
	next.Index = 0
	return next, nil
}

// Respond records the answer to the current question and advances.
// Answering the last question moves the session into Computing.
func Respond(s State, answer Answer) (State, error) {
	if s.Phase != PhaseQuestioning {
		return s, fmt.Errorf("quiz: cannot answer in phase %q", s.Phase)
	}
	if !validAnswer(answer) {
		return s, fmt.Errorf("quiz: invalid answer %q", answer)
	}
	questions := Questions()
	next := s
	next.Answers = make(map[string]Answer, len(s.Answers)+1)
	for k, v := range s.Answers {
		next.Answers[k] = v
	}
	next.Answers[questions[s.Index].ID] = answer

	if s.Index < len(questions)-1 {
		next.Index = s.Index + 1
		return next, nil
	}
	next.Phase = PhaseComputing
	return next, nil
}

// Complete transitions Computing into Results with the matches computed
// against the given member roster.
func Complete(s State, members []types.PoliticianSummary) (State, error) {
	if s.Phase != PhaseComputing {
		return s, fmt.Errorf("quiz: cannot complete from phase %q", s.Phase)
	}
	next := s
	next.Phase = PhaseResults
	next.Outcomes = ComputeMatches(s.Answers, members)
	return next, nil
}

// Reset returns any session to a fresh Intro state.
func Reset(State) State {
	return NewState()
}

const (
	matchCount  = 5
	affinityMin = 40
	affinityMax = 98
)

// ComputeMatches derives the top member matches for an answer set. The
// result is a pure function of the answers and the roster: the same
// inputs always yield the same matches in the same order.
func ComputeMatches(answers map[string]Answer, members []types.PoliticianSummary) []Match {
	if len(members) == 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(members))
	for _, m := range members {
		party := m.Party
		if m.State != "" {
			party = fmt.Sprintf("%s/%s", m.Party, m.State)
		}
		matches = append(matches, Match{
			ID:       m.ID,
			Name:     m.Name,
			Party:    party,
			PhotoURL: m.PhotoURL,
			Affinity: affinity(answers, m.ID),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Affinity != matches[j].Affinity {
			return matches[i].Affinity > matches[j].Affinity
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > matchCount {
		matches = matches[:matchCount]
	}
	return matches
}

// affinity hashes the answer set together with the member ID into the
// 40..98 band the original presentation used.
func affinity(answers map[string]Answer, memberID int) int {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New32a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(answers[k]))
		h.Write([]byte{';'})
	}
	fmt.Fprintf(h, "#%d", memberID)

	span := uint32(affinityMax - affinityMin + 1)
	return affinityMin + int(h.Sum32()%span)
}
