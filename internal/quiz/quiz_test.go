package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onca-labs/fiscaliza/internal/types"
)

func answerAll(t *testing.T, s State, answer Answer) State {
	t.Helper()
	for range Questions() {
		next, err := Respond(s, answer)
		require.NoError(t, err)
		s = next
	}
	return s
}

func TestFullFlowReachesComputing(t *testing.T) {
	s, err := Start(NewState())
	require.NoError(t, err)
	assert.Equal(t, PhaseQuestioning, s.Phase)
	assert.Equal(t, 0, s.Index)

	s = answerAll(t, s, AnswerYes)

	assert.Equal(t, PhaseComputing, s.Phase)
	assert.Len(t, s.Answers, len(Questions()))
}

func TestTransitionsRejectWrongPhase(t *testing.T) {
	_, err := Start(State{Phase: PhaseResults})
	require.Error(t, err)

	_, err = Respond(NewState(), AnswerYes)
	require.Error(t, err)

	_, err = Complete(NewState(), nil)
	require.Error(t, err)
}

func TestRespondRejectsUnknownAnswer(t *testing.T) {
	s, err := Start(NewState())
	require.NoError(t, err)

	_, err = Respond(s, Answer("talvez"))
	require.Error(t, err)
}

func TestRespondDoesNotMutatePriorState(t *testing.T) {
	s, err := Start(NewState())
	require.NoError(t, err)

	next, err := Respond(s, AnswerNo)
	require.NoError(t, err)

	assert.Empty(t, s.Answers, "answering must not touch the previous snapshot")
	assert.Len(t, next.Answers, 1)
}

func roster() []types.PoliticianSummary {
	return []types.PoliticianSummary{
		{ID: 1, Name: "A", Party: "AAA", State: "SP"},
		{ID: 2, Name: "B", Party: "BBB", State: "AM"},
		{ID: 3, Name: "C", Party: "CCC", State: "RS"},
		{ID: 4, Name: "D", Party: "DDD", State: "BA"},
		{ID: 5, Name: "E", Party: "EEE", State: "CE"},
		{ID: 6, Name: "F", Party: "FFF", State: "PR"},
	}
}

func TestComputeMatchesIsDeterministic(t *testing.T) {
	answers := map[string]Answer{"q1": AnswerYes, "q2": AnswerNo, "q3": AnswerAbstain}

	first := ComputeMatches(answers, roster())
	second := ComputeMatches(answers, roster())

	assert.Equal(t, first, second)
	require.Len(t, first, 5, "capped at five matches")
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].Affinity, first[i].Affinity)
	}
	for _, m := range first {
		assert.GreaterOrEqual(t, m.Affinity, 40)
		assert.LessOrEqual(t, m.Affinity, 98)
	}
	assert.Contains(t, []string{"AAA/SP", "BBB/AM", "CCC/RS", "DDD/BA", "EEE/CE", "FFF/PR"}, first[0].Party)
}

func TestComputeMatchesVariesWithAnswers(t *testing.T) {
	yes := ComputeMatches(map[string]Answer{"q1": AnswerYes}, roster())
	no := ComputeMatches(map[string]Answer{"q1": AnswerNo}, roster())

	assert.NotEqual(t, yes, no)
}

func TestComputeMatchesEmptyRoster(t *testing.T) {
	got := ComputeMatches(map[string]Answer{"q1": AnswerYes}, nil)
	assert.Empty(t, got)
}

func TestCompleteProducesResults(t *testing.T) {
	s, err := Start(NewState())
	require.NoError(t, err)
	s = answerAll(t, s, AnswerAbstain)

	s, err = Complete(s, roster())

	require.NoError(t, err)
	assert.Equal(t, PhaseResults, s.Phase)
	assert.Len(t, s.Outcomes, 5)
}

func TestStoreLifecycle(t *testing.T) {
	st := NewStore()

	id, state, err := st.Create()
	require.NoError(t, err)
	assert.Equal(t, PhaseQuestioning, state.Phase)

	state, err = st.Transition(id, func(s State) (State, error) {
		return Respond(s, AnswerYes)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, state.Index)

	got, err := st.Get(id)
	require.NoError(t, err)
	assert.Equal(t, state, got)

	st.Delete(id)
	_, err = st.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreFailedTransitionKeepsState(t *testing.T) {
	st := NewStore()
	id, _, err := st.Create()
	require.NoError(t, err)

	_, err = st.Transition(id, func(s State) (State, error) {
		return Respond(s, Answer("invalid"))
	})
	require.Error(t, err)

	got, err := st.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Index)
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	st := NewStore()
	current := time.Now()
	st.now = func() time.Time { return current }

	id, _, err := st.Create()
	require.NoError(t, err)

	current = current.Add(sessionTTL + time.Minute)
	_, err = st.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
