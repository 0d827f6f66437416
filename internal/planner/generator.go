package planner

import (
	"sort"

	"pulse/internal/domain"
)

const (
	minStops = 2
	maxStops = 3
)

// GeneratePlans builds up to three itineraries from candidates, in the fixed
// order best match, budget, adventure. A strategy that cannot find two stops
// is left out. An empty archetype is derived from mode.
//
// candidates is not modified.
func GeneratePlans(candidates []domain.Activity, mode domain.CompanionMode, archetype domain.Archetype) []domain.GeneratedPlan {
	arch := ResolveArchetype(mode, archetype)
	prefs := affinity[mode]

	plans := make([]domain.GeneratedPlan, 0, 3)
	if sel := bestMatch(candidates, prefs); sel != nil {
		plans = append(plans, buildPlan(domain.StrategyBestMatch, arch, labelFor(arch), sel))
	}
	if sel := budgetPick(candidates, prefs); sel != nil {
		plans = append(plans, buildPlan(domain.StrategyBudget, arch, budgetLabel, sel))
	}
	if sel := adventureMix(candidates); sel != nil {
		plans = append(plans, buildPlan(domain.StrategyAdventure, arch, adventureLabel, sel))
	}
	return plans
}

func bestMatch(cands []domain.Activity, prefs []domain.Category) []domain.Activity {
	var pool []domain.Activity
	for _, c := range cands {
		if inAffinity(prefs, c.Category) {
			pool = append(pool, c)
		}
	}
	if len(pool) < minStops {
		return nil
	}
	sort.SliceStable(pool, func(i, j int) bool { return rankedAbove(pool[i], pool[j]) })
	return firstN(pool, maxStops)
}

func budgetPick(cands []domain.Activity, prefs []domain.Category) []domain.Activity {
	var budget, preferred []domain.Activity
	for _, c := range cands {
		if !IsBudget(c.PriceRange) {
			continue
		}
		budget = append(budget, c)
		if inAffinity(prefs, c.Category) {
			preferred = append(preferred, c)
		}
	}
	sel := budget
	if len(preferred) >= minStops {
		sel = preferred
	}
	if len(sel) < minStops {
		return nil
	}
	return firstN(sel, maxStops)
}

func adventureMix(cands []domain.Activity) []domain.Activity {
	var order []domain.Category
	best := make(map[domain.Category]domain.Activity)
	for _, c := range cands {
		cur, seen := best[c.Category]
		if !seen {
			order = append(order, c.Category)
			best[c.Category] = c
			continue
		}
		if rankedAbove(c, cur) {
			best[c.Category] = c
		}
	}
	if len(order) < minStops {
		return nil
	}
	if len(order) > maxStops {
		order = order[:maxStops]
	}
	sel := make([]domain.Activity, 0, len(order))
	for _, cat := range order {
		sel = append(sel, best[cat])
	}
	return sel
}

// rankedAbove orders by rating descending with missing ratings last. Equal
// ratings compare false so stable sorts keep input order.
func rankedAbove(a, b domain.Activity) bool {
	switch {
	case a.RatingScore == nil:
		return false
	case b.RatingScore == nil:
		return true
	default:
		return *a.RatingScore > *b.RatingScore
	}
}

func firstN(as []domain.Activity, n int) []domain.Activity {
	if len(as) > n {
		as = as[:n]
	}
	return append([]domain.Activity(nil), as...)
}

func buildPlan(s domain.Strategy, arch domain.Archetype, l label, sel []domain.Activity) domain.GeneratedPlan {
	sort.SliceStable(sel, func(i, j int) bool { return sel[i].StartTime.Before(sel[j].StartTime) })

	p := domain.GeneratedPlan{
		Strategy:      s,
		Archetype:     arch,
		Name:          l.name,
		Description:   l.description,
		Activities:    make([]domain.PlanActivity, 0, len(sel)),
		Neighborhoods: []string{},
	}
	prices := make([]string, 0, len(sel))
	seen := map[string]bool{}
	for i, a := range sel {
		p.Activities = append(p.Activities, domain.PlanActivity{
			ID:           a.ID,
			Title:        a.Title,
			Category:     a.Category,
			VenueName:    a.VenueName,
			Neighborhood: a.Neighborhood,
			StartTime:    a.StartTime,
			PriceRange:   a.PriceRange,
			Position:     i + 1,
		})
		prices = append(prices, a.PriceRange)
		if a.Neighborhood != nil && *a.Neighborhood != "" && !seen[*a.Neighborhood] {
			seen[*a.Neighborhood] = true
			p.Neighborhoods = append(p.Neighborhoods, *a.Neighborhood)
		}
	}
	p.EstimatedCost = CostTier(prices)
	return p
}
