package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() Config {
	return Config{HoursPerDay: 8, WarnPercent: 80, CriticalPercent: 100}
}

func TestReconcileBasicConsumption(t *testing.T) {
	budget := Budget{Profiles: []ProfileBudget{
		{Name: "Dev", DailyRate: 500, BudgetDays: 20},
	}}
	// 96 hours at 8 hours per day = 12 days
	entries := make([]Entry, 0, 12)
	for day := 1; day <= 12; day++ {
		entries = append(entries, Entry{
			ProfileName:  "Dev",
			CategoryName: "Front",
			Date:         time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
			Hours:        8,
		})
	}

	report := Reconcile(budget, entries, defaultConfig())

	assert.InDelta(t, 20.0, report.BudgetDays, 1e-9)
	assert.InDelta(t, 12.0, report.ConsumedDays, 1e-9)
	assert.InDelta(t, 8.0, report.RemainingDays, 1e-9)
	assert.InDelta(t, 60.0, report.ConsumptionPercent, 1e-9)
	assert.InDelta(t, 10000.0, report.BudgetAmountHT, 1e-9)
	assert.InDelta(t, 6000.0, report.ConsumedAmountHT, 1e-9)
	assert.InDelta(t, 4000.0, report.RemainingAmountHT, 1e-9)
	assert.Empty(t, report.Warnings)
}

func TestReconcileZeroBudget(t *testing.T) {
	budget := Budget{Profiles: []ProfileBudget{
		{Name: "Dev", DailyRate: 500, BudgetDays: 0},
	}}
	entries := []Entry{
		{ProfileName: "Dev", Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Hours: 8},
	}

	report := Reconcile(budget, entries, defaultConfig())

	assert.Zero(t, report.ConsumptionPercent)
	assert.Zero(t, report.RemainingDays)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "zero-day budget")
}

func TestReconcileOverrun(t *testing.T) {
	budget := Budget{Profiles: []ProfileBudget{
		{Name: "Dev", DailyRate: 500, BudgetDays: 2},
	}}
	entries := []Entry{
		{ProfileName: "Dev", Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Hours: 24},
	}

	report := Reconcile(budget, entries, defaultConfig())

	assert.InDelta(t, 3.0, report.ConsumedDays, 1e-9)
	assert.Zero(t, report.RemainingDays)
	assert.InDelta(t, 150.0, report.ConsumptionPercent, 1e-9)

	var critical, overBudget bool
	for _, warning := range report.Warnings {
		if warning == "budget consumption at 150.0% (critical threshold 100%)" {
			critical = true
		}
		if warning == `profile "Dev" over budget: 3.00 days consumed of 2.00` {
			overBudget = true
		}
	}
	assert.True(t, critical)
	assert.True(t, overBudget)
}

func TestReconcileWarnThreshold(t *testing.T) {
	budget := Budget{Profiles: []ProfileBudget{
		{Name: "Dev", DailyRate: 500, BudgetDays: 10},
	}}
	entries := []Entry{
		{ProfileName: "Dev", Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Hours: 8 * 8.5},
	}

	report := Reconcile(budget, entries, defaultConfig())

	assert.InDelta(t, 85.0, report.ConsumptionPercent, 1e-9)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "warning threshold 80%")
}

func TestReconcileUnknownProfile(t *testing.T) {
	budget := Budget{Profiles: []ProfileBudget{
		{Name: "Dev", DailyRate: 500, BudgetDays: 10},
	}}
	entries := []Entry{
		{ProfileName: "Designer", Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Hours: 8},
	}

	report := Reconcile(budget, entries, defaultConfig())

	// unknown profiles consume days at rate zero
	assert.InDelta(t, 1.0, report.ConsumedDays, 1e-9)
	assert.Zero(t, report.ConsumedAmountHT)
	require.Len(t, report.ByProfile, 2)
	assert.Equal(t, "Designer", report.ByProfile[0].Key)
	assert.Zero(t, report.ByProfile[0].BudgetDays)

	var found bool
	for _, warning := range report.Warnings {
		if warning == `time logged for profile "Designer" absent from contract` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReconcileBreakdowns(t *testing.T) {
	budget := Budget{Profiles: []ProfileBudget{
		{Name: "Dev", DailyRate: 500, BudgetDays: 20},
		{Name: "Designer", DailyRate: 400, BudgetDays: 5},
	}}
	entries := []Entry{
		{ProfileName: "Dev", CategoryName: "Front", Date: time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC), Hours: 8},
		{ProfileName: "Dev", CategoryName: "Back", Date: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), Hours: 4},
		{ProfileName: "Designer", CategoryName: "", Date: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), Hours: 8},
	}

	report := Reconcile(budget, entries, defaultConfig())

	require.Len(t, report.ByCategory, 3)
	assert.Equal(t, "Back", report.ByCategory[0].Key)
	assert.Equal(t, "Front", report.ByCategory[1].Key)
	assert.Equal(t, "uncategorized", report.ByCategory[2].Key)

	require.Len(t, report.ByMonth, 2)
	assert.Equal(t, "2026-04", report.ByMonth[0].Key)
	assert.InDelta(t, 1.0, report.ByMonth[0].ConsumedDays, 1e-9)
	assert.InDelta(t, 500.0, report.ByMonth[0].AmountHT, 1e-9)
	assert.Equal(t, "2026-05", report.ByMonth[1].Key)
	assert.InDelta(t, 1.5, report.ByMonth[1].ConsumedDays, 1e-9)
	assert.InDelta(t, 650.0, report.ByMonth[1].AmountHT, 1e-9)
}

func TestReconcileFixedPriceAmountOverride(t *testing.T) {
	budget := Budget{
		Profiles: []ProfileBudget{
			{Name: "Dev", DailyRate: 500, BudgetDays: 10},
		},
		TotalAmountHT: 8000,
	}

	report := Reconcile(budget, nil, defaultConfig())

	assert.InDelta(t, 8000.0, report.BudgetAmountHT, 1e-9)
	assert.InDelta(t, 8000.0, report.RemainingAmountHT, 1e-9)
}

func TestReconcileEmptyBudget(t *testing.T) {
	report := Reconcile(Budget{}, nil, defaultConfig())

	assert.Zero(t, report.BudgetDays)
	assert.Zero(t, report.ConsumptionPercent)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "no budget profiles")
}

func TestReconcileDefaultsHoursPerDay(t *testing.T) {
	budget := Budget{Profiles: []ProfileBudget{{Name: "Dev", DailyRate: 500, BudgetDays: 2}}}
	entries := []Entry{
		{ProfileName: "Dev", Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Hours: 8},
	}

	report := Reconcile(budget, entries, Config{})

	assert.InDelta(t, 1.0, report.ConsumedDays, 1e-9)
}
