// Package reconcile compares a project's contracted budget against logged
// time. Pure functions over plain inputs; loading contracts and time entries
// is the caller's job.
package reconcile

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Config carries the reporting knobs, usually sourced from the hot-reloaded
// finance config.
type Config struct {
	// HoursPerDay converts logged hours into person-days.
	HoursPerDay float64
	// WarnPercent and CriticalPercent are consumption thresholds that
	// produce report warnings.
	WarnPercent     float64
	CriticalPercent float64
}

// ProfileBudget is the contracted envelope for one role.
type ProfileBudget struct {
	Name       string
	DailyRate  float64
	BudgetDays float64
}

// Budget is the contracted reference the consumption is measured against.
type Budget struct {
	Profiles []ProfileBudget
	// TotalAmountHT overrides the computed sum of rate x days when set,
	// which is the case for fixed-price contracts.
	TotalAmountHT float64
}

// Entry is one logged time fragment.
type Entry struct {
	ProfileName  string
	CategoryName string
	Date         time.Time
	Hours        float64
}

// Line is one row of a per-dimension breakdown.
type Line struct {
	Key           string  `json:"key"`
	BudgetDays    float64 `json:"budget_days"`
	ConsumedDays  float64 `json:"consumed_days"`
	RemainingDays float64 `json:"remaining_days"`
	Percent       float64 `json:"percent"`
	AmountHT      float64 `json:"amount_ht"`
}

// Report is the reconciliation output. Remaining values clamp at zero;
// overruns show through Percent and the warnings instead.
type Report struct {
	BudgetDays         float64  `json:"budget_days"`
	ConsumedDays       float64  `json:"consumed_days"`
	RemainingDays      float64  `json:"remaining_days"`
	ConsumptionPercent float64  `json:"consumption_percent"`
	BudgetAmountHT     float64  `json:"budget_amount_ht"`
	ConsumedAmountHT   float64  `json:"consumed_amount_ht"`
	RemainingAmountHT  float64  `json:"remaining_amount_ht"`
	ByProfile          []Line   `json:"by_profile"`
	ByCategory         []Line   `json:"by_category"`
	ByMonth            []Line   `json:"by_month"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Reconcile computes budget versus consumption across the whole project and
// broken down by profile, category and calendar month.
func Reconcile(budget Budget, entries []Entry, cfg Config) Report {
	hoursPerDay := cfg.HoursPerDay
	if hoursPerDay <= 0 {
		hoursPerDay = 8
	}

	budgetDaysByProfile := make(map[string]float64, len(budget.Profiles))
	rates := make(map[string]float64, len(budget.Profiles))
	var report Report
	for _, profile := range budget.Profiles {
		days := clamp(profile.BudgetDays)
		budgetDaysByProfile[profile.Name] += days
		rates[profile.Name] = clamp(profile.DailyRate)
		report.BudgetDays += days
		report.BudgetAmountHT += days * clamp(profile.DailyRate)
	}
	if budget.TotalAmountHT > 0 {
		report.BudgetAmountHT = budget.TotalAmountHT
	}

	consumedByProfile := make(map[string]float64)
	consumedByCategory := make(map[string]float64)
	consumedByMonth := make(map[string]float64)
	amountByMonth := make(map[string]float64)
	unknownProfiles := make(map[string]struct{})

	for _, entry := range entries {
		days := clamp(entry.Hours) / hoursPerDay
		rate, known := rates[entry.ProfileName]
		if !known {
			unknownProfiles[entry.ProfileName] = struct{}{}
		}

		report.ConsumedDays += days
		report.ConsumedAmountHT += days * rate
		consumedByProfile[entry.ProfileName] += days

		category := entry.CategoryName
		if category == "" {
			category = "uncategorized"
		}
		consumedByCategory[category] += days

		month := entry.Date.UTC().Format("2006-01")
		consumedByMonth[month] += days
		amountByMonth[month] += days * rate
	}

	report.RemainingDays = math.Max(0, report.BudgetDays-report.ConsumedDays)
	report.RemainingAmountHT = math.Max(0, report.BudgetAmountHT-report.ConsumedAmountHT)
	report.ConsumptionPercent = percent(report.ConsumedDays, report.BudgetDays)

	report.ByProfile = profileLines(budgetDaysByProfile, consumedByProfile, rates)
	report.ByCategory = flatLines(consumedByCategory, nil)
	report.ByMonth = flatLines(consumedByMonth, amountByMonth)

	report.Warnings = warnings(report, budget, unknownProfiles, cfg)
	return report
}

func profileLines(budgets, consumed, rates map[string]float64) []Line {
	names := make(map[string]struct{}, len(budgets)+len(consumed))
	for name := range budgets {
		names[name] = struct{}{}
	}
	for name := range consumed {
		names[name] = struct{}{}
	}

	lines := make([]Line, 0, len(names))
	for name := range names {
		budgetDays := budgets[name]
		consumedDays := consumed[name]
		lines = append(lines, Line{
			Key:           name,
			BudgetDays:    budgetDays,
			ConsumedDays:  consumedDays,
			RemainingDays: math.Max(0, budgetDays-consumedDays),
			Percent:       percent(consumedDays, budgetDays),
			AmountHT:      consumedDays * rates[name],
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines
}

func flatLines(consumed, amounts map[string]float64) []Line {
	lines := make([]Line, 0, len(consumed))
	for key, days := range consumed {
		line := Line{Key: key, ConsumedDays: days}
		if amounts != nil {
			line.AmountHT = amounts[key]
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines
}

func warnings(report Report, budget Budget, unknownProfiles map[string]struct{}, cfg Config) []string {
	var out []string
	if report.BudgetDays == 0 && len(budget.Profiles) > 0 {
		out = append(out, "contract has a zero-day budget")
	}
	if len(budget.Profiles) == 0 {
		out = append(out, "no budget profiles defined")
	}

	names := make([]string, 0, len(unknownProfiles))
	for name := range unknownProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, fmt.Sprintf("time logged for profile %q absent from contract", name))
	}

	switch {
	case cfg.CriticalPercent > 0 && report.ConsumptionPercent >= cfg.CriticalPercent:
		out = append(out, fmt.Sprintf("budget consumption at %.1f%% (critical threshold %.0f%%)", report.ConsumptionPercent, cfg.CriticalPercent))
	case cfg.WarnPercent > 0 && report.ConsumptionPercent >= cfg.WarnPercent:
		out = append(out, fmt.Sprintf("budget consumption at %.1f%% (warning threshold %.0f%%)", report.ConsumptionPercent, cfg.WarnPercent))
	}

	for _, line := range report.ByProfile {
		if line.BudgetDays > 0 && line.ConsumedDays > line.BudgetDays {
			out = append(out, fmt.Sprintf("profile %q over budget: %.2f days consumed of %.2f", line.Key, line.ConsumedDays, line.BudgetDays))
		}
	}
	return out
}

// percent returns consumption as a percentage, 0 when the budget is zero so
// empty contracts never divide by zero.
func percent(consumed, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return consumed / budget * 100
}

func clamp(value float64) float64 {
	if value < 0 || math.IsNaN(value) {
		return 0
	}
	return value
}
