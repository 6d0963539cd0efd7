package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComplexity(t *testing.T) {
	for _, raw := range []string{"ts", "s", "m", "c", "tc", " TC ", "M"} {
		_, err := ParseComplexity(raw)
		assert.NoError(t, err, raw)
	}

	_, err := ParseComplexity("xl")
	assert.Error(t, err)

	_, err = ParseComplexity("")
	assert.Error(t, err)
}

func TestParseTransverseKind(t *testing.T) {
	kind, err := ParseTransverseKind("Fixed")
	require.NoError(t, err)
	assert.Equal(t, Fixed, kind)

	kind, err = ParseTransverseKind("rate")
	require.NoError(t, err)
	assert.Equal(t, Rate, kind)

	_, err = ParseTransverseKind("percent")
	assert.Error(t, err)
}

func TestIndexResolve(t *testing.T) {
	idx := NewIndex([]Abaque{
		{ComponentName: "Login Page", ProfileName: "Dev", DaysTS: 0.5, DaysS: 1, DaysM: 2, DaysC: 3.5, DaysTC: 5},
		{ComponentName: "Login Page", ProfileName: "Designer", DaysM: 1},
	})

	assert.Equal(t, 2.0, idx.Resolve("Login Page", "Dev", Medium))
	assert.Equal(t, 5.0, idx.Resolve("Login Page", "Dev", VeryComplex))
	assert.Equal(t, 1.0, idx.Resolve("Login Page", "Designer", Medium))

	// missing component, missing profile: zero, never an error
	assert.Zero(t, idx.Resolve("Checkout", "Dev", Medium))
	assert.Zero(t, idx.Resolve("Login Page", "PM", Medium))
}

func TestIndexDuplicateEntryLastWins(t *testing.T) {
	idx := NewIndex([]Abaque{
		{ComponentName: "API", ProfileName: "Dev", DaysM: 2},
		{ComponentName: "API", ProfileName: "Dev", DaysM: 4},
	})

	assert.Equal(t, 4.0, idx.Resolve("API", "Dev", Medium))
	assert.Equal(t, []string{"Dev"}, idx.ProfilesFor("API"))
}

func TestResolveClampsNegativeDayCosts(t *testing.T) {
	idx := NewIndex([]Abaque{
		{ComponentName: "API", ProfileName: "Dev", DaysM: -3},
	})

	assert.Zero(t, idx.Resolve("API", "Dev", Medium))
}

func TestAggregateSumsAcrossMatchingProfiles(t *testing.T) {
	idx := NewIndex([]Abaque{
		{ComponentName: "Login Page", ProfileName: "Dev", DaysM: 2},
		{ComponentName: "Login Page", ProfileName: "Designer", DaysM: 1},
	})
	categories := []Category{{
		Name: "Front",
		Activities: []Activity{{
			Name:   "Auth",
			Active: true,
			Components: []Component{
				{ComponentName: "Login Page", Complexity: Medium, Coefficient: 3},
			},
		}},
	}}

	totals := Aggregate(categories, idx)

	assert.InDelta(t, 6.0, totals["Dev"], 1e-9)
	assert.InDelta(t, 3.0, totals["Designer"], 1e-9)
}

func TestAggregateSkipsInactiveActivities(t *testing.T) {
	idx := NewIndex([]Abaque{
		{ComponentName: "Login Page", ProfileName: "Dev", DaysM: 2},
	})
	categories := []Category{{
		Name: "Front",
		Activities: []Activity{
			{
				Name:   "Auth",
				Active: false,
				Components: []Component{
					{ComponentName: "Login Page", Complexity: Medium, Coefficient: 100},
				},
			},
			{
				Name:   "Kept",
				Active: true,
				Components: []Component{
					{ComponentName: "Login Page", Complexity: Medium, Coefficient: 1},
				},
			},
		},
	}}

	totals := Aggregate(categories, idx)

	assert.InDelta(t, 2.0, totals["Dev"], 1e-9)
}

func TestAggregateMissingAbaqueContributesZero(t *testing.T) {
	idx := NewIndex(nil)
	categories := []Category{{
		Activities: []Activity{{
			Active: true,
			Components: []Component{
				{ComponentName: "Ghost", Complexity: Complex, Coefficient: 10},
			},
		}},
	}}

	totals := Aggregate(categories, idx)

	assert.Empty(t, totals)
}

func TestApplyTransverseRateReadsPreLevelSubtotal(t *testing.T) {
	base := map[string]float64{"Dev": 10}
	levels := []TransverseLevel{{
		Level: 1,
		Activities: []TransverseActivity{
			{Name: "Pilotage", ProfileName: "Dev", Kind: Rate, Value: 20},
			{Name: "Recette", ProfileName: "Dev", Kind: Rate, Value: 30},
		},
	}}

	totals := ApplyTransverse(base, levels)

	// both rates apply to 10, not to each other: 10 + 2 + 3
	assert.InDelta(t, 15.0, totals["Dev"], 1e-9)
}

func TestApplyTransverseLevelsCompound(t *testing.T) {
	base := map[string]float64{"Dev": 10}
	levels := []TransverseLevel{
		{
			// out of order on purpose: level 1 must still run first
			Level: 2,
			Activities: []TransverseActivity{
				{ProfileName: "Dev", Kind: Fixed, Value: 2},
			},
		},
		{
			Level: 1,
			Activities: []TransverseActivity{
				{ProfileName: "Dev", Kind: Rate, Value: 50},
			},
		},
	}

	totals := ApplyTransverse(base, levels)

	// level 1: 10 + 50% = 15, level 2: 15 + 2 = 17
	assert.InDelta(t, 17.0, totals["Dev"], 1e-9)
}

func TestApplyTransverseIntraLevelOrderIndependent(t *testing.T) {
	base := map[string]float64{"Dev": 10}
	forward := []TransverseActivity{
		{ProfileName: "Dev", Kind: Rate, Value: 10},
		{ProfileName: "Dev", Kind: Fixed, Value: 5},
		{ProfileName: "Dev", Kind: Rate, Value: 7},
	}
	reversed := []TransverseActivity{forward[2], forward[1], forward[0]}

	a := ApplyTransverse(base, []TransverseLevel{{Level: 1, Activities: forward}})
	b := ApplyTransverse(base, []TransverseLevel{{Level: 1, Activities: reversed}})

	assert.InDelta(t, a["Dev"], b["Dev"], 1e-9)
	assert.InDelta(t, 16.7, a["Dev"], 1e-9)
}

func TestApplyTransverseUnknownProfileCreatesBucket(t *testing.T) {
	totals := ApplyTransverse(map[string]float64{}, []TransverseLevel{{
		Level: 1,
		Activities: []TransverseActivity{
			{ProfileName: "PM", Kind: Fixed, Value: 3},
		},
	}})

	assert.InDelta(t, 3.0, totals["PM"], 1e-9)
}

func TestApplyTransverseClampsNegatives(t *testing.T) {
	totals := ApplyTransverse(map[string]float64{"Dev": -5}, []TransverseLevel{{
		Level: 1,
		Activities: []TransverseActivity{
			{ProfileName: "Dev", Kind: Fixed, Value: -2},
			{ProfileName: "Dev", Kind: Rate, Value: -10},
		},
	}})

	assert.Zero(t, totals["Dev"])
}

func TestTotalizeEndToEnd(t *testing.T) {
	q := Quote{
		Profiles: []Profile{{Name: "Dev", DailyRate: 500}},
		Abaques: []Abaque{
			{ComponentName: "Login Page", ProfileName: "Dev", DaysTS: 0.5, DaysS: 1, DaysM: 2, DaysC: 3.5, DaysTC: 5},
		},
		Categories: []Category{{
			Name: "Front",
			Activities: []Activity{{
				Name:   "Auth",
				Active: true,
				Components: []Component{
					{ComponentName: "Login Page", Complexity: Medium, Coefficient: 3},
				},
			}},
		}},
	}

	totals := Totalize(q)

	require.InDelta(t, 6.0, totals.TotalDays, 1e-9)
	assert.InDelta(t, 6.0, totals.TotalDaysByProfile["Dev"], 1e-9)
	assert.InDelta(t, 3000.0, totals.AmountHTByProfile["Dev"], 1e-9)
	assert.InDelta(t, 3000.0, totals.TotalHT, 1e-9)
	assert.InDelta(t, 3600.0, totals.TotalTTC, 1e-9)
}

func TestTotalizeWithTransverseLevels(t *testing.T) {
	q := Quote{
		Profiles: []Profile{
			{Name: "Dev", DailyRate: 500},
			{Name: "PM", DailyRate: 700},
		},
		Abaques: []Abaque{
			{ComponentName: "Login Page", ProfileName: "Dev", DaysM: 2},
		},
		Categories: []Category{{
			Activities: []Activity{{
				Active: true,
				Components: []Component{
					{ComponentName: "Login Page", Complexity: Medium, Coefficient: 5},
				},
			}},
		}},
		TransverseLevels: []TransverseLevel{
			{Level: 1, Activities: []TransverseActivity{
				{ProfileName: "Dev", Kind: Rate, Value: 10},
				{ProfileName: "PM", Kind: Fixed, Value: 2},
			}},
		},
	}

	totals := Totalize(q)

	assert.InDelta(t, 11.0, totals.TotalDaysByProfile["Dev"], 1e-9)
	assert.InDelta(t, 2.0, totals.TotalDaysByProfile["PM"], 1e-9)
	assert.InDelta(t, 13.0, totals.TotalDays, 1e-9)
	assert.InDelta(t, 5500.0+1400.0, totals.TotalHT, 1e-9)
	assert.InDelta(t, totals.TotalHT*1.20, totals.TotalTTC, 1e-9)
}

func TestTotalizeUndefinedProfilePricesAtZero(t *testing.T) {
	q := Quote{
		Abaques: []Abaque{
			{ComponentName: "API", ProfileName: "Ghost", DaysM: 4},
		},
		Categories: []Category{{
			Activities: []Activity{{
				Active: true,
				Components: []Component{
					{ComponentName: "API", Complexity: Medium, Coefficient: 1},
				},
			}},
		}},
	}

	totals := Totalize(q)

	assert.InDelta(t, 4.0, totals.TotalDays, 1e-9)
	assert.Zero(t, totals.TotalHT)
	assert.Zero(t, totals.TotalTTC)
}

func TestTotalizeEmptyQuote(t *testing.T) {
	totals := Totalize(Quote{})

	assert.Zero(t, totals.TotalDays)
	assert.Zero(t, totals.TotalHT)
	assert.Zero(t, totals.TotalTTC)
	assert.Empty(t, totals.AmountHTByProfile)
}

func TestTotalizeIsDeterministic(t *testing.T) {
	q := Quote{
		Profiles: []Profile{
			{Name: "Dev", DailyRate: 450},
			{Name: "Designer", DailyRate: 400},
		},
		Abaques: []Abaque{
			{ComponentName: "Login Page", ProfileName: "Dev", DaysM: 2},
			{ComponentName: "Login Page", ProfileName: "Designer", DaysM: 1},
			{ComponentName: "Dashboard", ProfileName: "Dev", DaysC: 6},
		},
		Categories: []Category{{
			Activities: []Activity{{
				Active: true,
				Components: []Component{
					{ComponentName: "Login Page", Complexity: Medium, Coefficient: 2},
					{ComponentName: "Dashboard", Complexity: Complex, Coefficient: 1},
				},
			}},
		}},
		TransverseLevels: []TransverseLevel{
			{Level: 1, Activities: []TransverseActivity{{ProfileName: "Dev", Kind: Rate, Value: 15}}},
			{Level: 2, Activities: []TransverseActivity{{ProfileName: "Designer", Kind: Fixed, Value: 0.5}}},
		},
	}

	first := Totalize(q)
	for i := 0; i < 10; i++ {
		again := Totalize(q)
		assert.Equal(t, first, again)
	}
	assert.InDelta(t, first.TotalHT*1.20, first.TotalTTC, 1e-9)
}

func TestLint(t *testing.T) {
	q := Quote{
		Profiles: []Profile{{Name: "Dev", DailyRate: 500}},
		Abaques: []Abaque{
			{ComponentName: "API", ProfileName: "Ghost", DaysM: 1},
		},
		Categories: []Category{{
			Activities: []Activity{{
				Active: true,
				Components: []Component{
					{ComponentName: "Nowhere", Complexity: Simple, Coefficient: 1},
				},
			}},
		}},
		TransverseLevels: []TransverseLevel{{
			Level: 1,
			Activities: []TransverseActivity{
				{Name: "Pilotage", ProfileName: "PM", Kind: Fixed, Value: 1},
			},
		}},
	}

	warnings := Lint(q)

	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "undefined profile \"Ghost\"")
	assert.Contains(t, warnings[1], "matches no abaque entry")
	assert.Contains(t, warnings[2], "undefined profile \"PM\"")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1234.57, Round2(1234.5678))
	assert.Equal(t, 0.1, Round2(0.1+1e-12))
	assert.Equal(t, -2.35, Round2(-2.345))
}
