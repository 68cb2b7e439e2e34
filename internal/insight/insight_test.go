package insight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAllRulesFire(t *testing.T) {
	f := Facts{
		Means:        []Mean{{"Age", 29.7}, {"Fare", 32.2}, {"Pclass", 2.3}},
		TopPairs:     []Pair{{A: "Pclass", B: "Fare", R: -0.5495}},
		TotalMissing: 177,
	}
	got := Evaluate(DefaultRules, f)
	require.Len(t, got, 3)

	assert.Equal(t, "highest-mean", got[0].Rule)
	assert.Equal(t, Success, got[0].Severity)
	assert.Contains(t, got[0].Message, "Fare")

	assert.Equal(t, "top-correlation", got[1].Rule)
	assert.Equal(t, Info, got[1].Severity)
	assert.Contains(t, got[1].Message, "Pclass and Fare")
	assert.Contains(t, got[1].Message, "r=-0.55")

	assert.Equal(t, Warning, got[2].Severity)
	assert.Contains(t, got[2].Message, "177")
}

func TestEvaluateSkipsRulesWithoutFacts(t *testing.T) {
	got := Evaluate(DefaultRules, Facts{Means: []Mean{{"A", 1}}})
	require.Len(t, got, 1)
	assert.Equal(t, "highest-mean", got[0].Rule)

	assert.Empty(t, Evaluate(DefaultRules, Facts{}))
}

func TestHighestMeanTiesAndNaN(t *testing.T) {
	m, ok := highestMean([]Mean{{"A", math.NaN()}, {"B", 3}, {"C", 3}})
	require.True(t, ok)
	assert.Equal(t, "B", m.Column)

	_, ok = highestMean([]Mean{{"A", math.NaN()}})
	assert.False(t, ok)
}

func TestCustomRuleTable(t *testing.T) {
	rules := []Rule{{
		Name:     "wide",
		Severity: Info,
		When:     func(f Facts) bool { return len(f.Means) > 1 },
		Render:   func(Facts) string { return "many numeric columns" },
	}}
	got := Evaluate(rules, Facts{Means: []Mean{{"A", 1}, {"B", 2}}})
	require.Len(t, got, 1)
	assert.Equal(t, "many numeric columns", got[0].Message)
}
