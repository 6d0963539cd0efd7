// Package costing implements the quote costing engine: abaque day-cost
// resolution, category/activity/component aggregation, transverse overhead
// application and HT/TTC totalization. Everything here is pure and
// deterministic; callers hand in already-loaded data and get values back.
package costing

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// VATRate is the fixed French VAT applied to every quote.
const VATRate = 0.20

// Complexity is one of the five abaque complexity tiers.
type Complexity string

const (
	VerySimple  Complexity = "ts"
	Simple      Complexity = "s"
	Medium      Complexity = "m"
	Complex     Complexity = "c"
	VeryComplex Complexity = "tc"
)

// ParseComplexity validates a complexity tier coming from form state.
func ParseComplexity(value string) (Complexity, error) {
	switch Complexity(strings.ToLower(strings.TrimSpace(value))) {
	case VerySimple:
		return VerySimple, nil
	case Simple:
		return Simple, nil
	case Medium:
		return Medium, nil
	case Complex:
		return Complex, nil
	case VeryComplex:
		return VeryComplex, nil
	default:
		return "", fmt.Errorf("invalid complexity %q", value)
	}
}

// TransverseKind is how a transverse activity contributes days.
type TransverseKind string

const (
	// Fixed adds Value days to the profile bucket.
	Fixed TransverseKind = "fixed"
	// Rate adds Value percent of the profile's pre-level subtotal.
	Rate TransverseKind = "rate"
)

// ParseTransverseKind validates a transverse activity kind.
func ParseTransverseKind(value string) (TransverseKind, error) {
	switch TransverseKind(strings.ToLower(strings.TrimSpace(value))) {
	case Fixed:
		return Fixed, nil
	case Rate:
		return Rate, nil
	default:
		return "", fmt.Errorf("invalid transverse kind %q", value)
	}
}

// Profile is a billable role local to one quote.
type Profile struct {
	Name      string
	DailyRate float64
}

// Abaque maps a named work component to day costs at the five complexity
// tiers, scoped to a profile.
type Abaque struct {
	ComponentName string
	ProfileName   string
	DaysTS        float64
	DaysS         float64
	DaysM         float64
	DaysC         float64
	DaysTC        float64
}

// DaysAt returns the day cost at the given complexity, clamped to zero.
func (a Abaque) DaysAt(c Complexity) float64 {
	var days float64
	switch c {
	case VerySimple:
		days = a.DaysTS
	case Simple:
		days = a.DaysS
	case Medium:
		days = a.DaysM
	case Complex:
		days = a.DaysC
	case VeryComplex:
		days = a.DaysTC
	}
	return clampNonNegative(days)
}

// Component references an abaque by component name at a chosen complexity.
type Component struct {
	ComponentName string
	Complexity    Complexity
	Coefficient   float64
}

// Activity groups components; inactive activities are excluded entirely.
type Activity struct {
	Name       string
	Active     bool
	Components []Component
}

// Category is a pure grouping label over activities.
type Category struct {
	Name       string
	Activities []Activity
}

// TransverseActivity is cross-cutting overhead for one profile.
type TransverseActivity struct {
	Name        string
	ProfileName string
	Kind        TransverseKind
	Value       float64
}

// TransverseLevel is a sequential layer of transverse activities.
type TransverseLevel struct {
	Level      int
	Activities []TransverseActivity
}

// Quote is the full costing input.
type Quote struct {
	Profiles         []Profile
	Abaques          []Abaque
	Categories       []Category
	TransverseLevels []TransverseLevel
}

// Totals is the engine output. Amounts keep full float precision; rounding
// belongs to presentation boundaries (PDF, Excel, JSON formatting).
type Totals struct {
	TotalDays          float64
	TotalDaysByProfile map[string]float64
	AmountHTByProfile  map[string]float64
	TotalHT            float64
	TotalTTC           float64
}

// Index is a lookup table over abaque entries built once per quote.
// Duplicate (component, profile) pairs resolve last-match-wins.
type Index struct {
	// component name -> profile name -> entry
	entries map[string]map[string]Abaque
	// component name -> profile names in first-seen order
	profileOrder map[string][]string
}

// NewIndex builds the abaque lookup table.
func NewIndex(abaques []Abaque) *Index {
	idx := &Index{
		entries:      make(map[string]map[string]Abaque, len(abaques)),
		profileOrder: make(map[string][]string, len(abaques)),
	}
	for _, entry := range abaques {
		byProfile, ok := idx.entries[entry.ComponentName]
		if !ok {
			byProfile = make(map[string]Abaque)
			idx.entries[entry.ComponentName] = byProfile
		}
		if _, seen := byProfile[entry.ProfileName]; !seen {
			idx.profileOrder[entry.ComponentName] = append(idx.profileOrder[entry.ComponentName], entry.ProfileName)
		}
		byProfile[entry.ProfileName] = entry
	}
	return idx
}

// Resolve returns the day cost for (component, profile, complexity), or 0
// when no matching entry exists. It never fails: a missing abaque is a
// zero-day contribution, not an error.
func (idx *Index) Resolve(componentName, profileName string, c Complexity) float64 {
	if idx == nil {
		return 0
	}
	byProfile, ok := idx.entries[componentName]
	if !ok {
		return 0
	}
	entry, ok := byProfile[profileName]
	if !ok {
		return 0
	}
	return entry.DaysAt(c)
}

// ProfilesFor returns, in stable order, the profiles that carry an abaque
// entry for the component name.
func (idx *Index) ProfilesFor(componentName string) []string {
	if idx == nil {
		return nil
	}
	return idx.profileOrder[componentName]
}

// Aggregate walks categories -> active activities -> components and sums
// coefficient x resolved day cost into per-profile totals. A component sums
// across every profile that has an abaque entry for its component name; a
// component matching no abaque contributes zero days.
func Aggregate(categories []Category, idx *Index) map[string]float64 {
	totals := make(map[string]float64)
	for _, category := range categories {
		for _, activity := range category.Activities {
			if !activity.Active {
				continue
			}
			for _, component := range activity.Components {
				coefficient := clampNonNegative(component.Coefficient)
				for _, profileName := range idx.ProfilesFor(component.ComponentName) {
					days := idx.Resolve(component.ComponentName, profileName, component.Complexity)
					totals[profileName] += coefficient * days
				}
			}
		}
	}
	return totals
}

// ApplyTransverse layers transverse levels on top of the base per-profile
// subtotals, in ascending level order. Rate activities within one level all
// read the subtotal as of the start of that level, so results do not depend
// on activity order inside a level; later levels compound on earlier ones.
func ApplyTransverse(base map[string]float64, levels []TransverseLevel) map[string]float64 {
	totals := make(map[string]float64, len(base))
	for name, days := range base {
		totals[name] = clampNonNegative(days)
	}

	ordered := make([]TransverseLevel, len(levels))
	copy(ordered, levels)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Level < ordered[j].Level })

	for _, level := range ordered {
		snapshot := make(map[string]float64, len(totals))
		for name, days := range totals {
			snapshot[name] = days
		}
		for _, activity := range level.Activities {
			value := clampNonNegative(activity.Value)
			switch activity.Kind {
			case Fixed:
				totals[activity.ProfileName] += value
			case Rate:
				totals[activity.ProfileName] += value / 100 * snapshot[activity.ProfileName]
			}
		}
	}
	return totals
}

// Totalize runs the full engine over a quote: aggregation, transverse
// application, then day x daily-rate pricing with the fixed 20% VAT.
// Profiles referenced by name but not defined on the quote price at rate
// zero; their days still show up in TotalDays.
func Totalize(q Quote) Totals {
	idx := NewIndex(q.Abaques)
	days := ApplyTransverse(Aggregate(q.Categories, idx), q.TransverseLevels)

	rates := make(map[string]float64, len(q.Profiles))
	for _, profile := range q.Profiles {
		rates[profile.Name] = clampNonNegative(profile.DailyRate)
	}

	totals := Totals{
		TotalDaysByProfile: days,
		AmountHTByProfile:  make(map[string]float64, len(days)),
	}
	for name, profileDays := range days {
		amount := profileDays * rates[name]
		totals.AmountHTByProfile[name] = amount
		totals.TotalDays += profileDays
		totals.TotalHT += amount
	}
	totals.TotalTTC = totals.TotalHT * (1 + VATRate)
	return totals
}

// Lint reports data-quality warnings the engine itself tolerates silently:
// components without any abaque entry and names referencing undefined
// profiles. Warnings are advisory; totals stay computable regardless.
func Lint(q Quote) []string {
	defined := make(map[string]struct{}, len(q.Profiles))
	for _, profile := range q.Profiles {
		defined[profile.Name] = struct{}{}
	}

	idx := NewIndex(q.Abaques)
	var warnings []string
	seen := make(map[string]struct{})
	warn := func(msg string) {
		if _, dup := seen[msg]; dup {
			return
		}
		seen[msg] = struct{}{}
		warnings = append(warnings, msg)
	}

	for _, entry := range q.Abaques {
		if _, ok := defined[entry.ProfileName]; !ok {
			warn(fmt.Sprintf("abaque %q references undefined profile %q", entry.ComponentName, entry.ProfileName))
		}
	}
	for _, category := range q.Categories {
		for _, activity := range category.Activities {
			for _, component := range activity.Components {
				if len(idx.ProfilesFor(component.ComponentName)) == 0 {
					warn(fmt.Sprintf("component %q matches no abaque entry", component.ComponentName))
				}
			}
		}
	}
	for _, level := range q.TransverseLevels {
		for _, activity := range level.Activities {
			if _, ok := defined[activity.ProfileName]; !ok {
				warn(fmt.Sprintf("transverse activity %q references undefined profile %q", activity.Name, activity.ProfileName))
			}
		}
	}
	return warnings
}

// Round2 rounds a monetary amount to 2 decimals. Presentation use only.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func clampNonNegative(value float64) float64 {
	if value < 0 || math.IsNaN(value) {
		return 0
	}
	return value
}
