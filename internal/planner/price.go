package planner

import (
	"regexp"
	"strconv"
	"strings"
)

// BudgetCeiling is the highest price (whole dollars) still considered budget.
const BudgetCeiling = 25

var digitsRe = regexp.MustCompile(`\d+`)

// IsFree reports whether a price descriptor is literally "free" or "$0".
func IsFree(priceRange string) bool {
	p := strings.TrimSpace(priceRange)
	return strings.EqualFold(p, "free") || p == "$0"
}

// MaxPrice returns the largest integer embedded in priceRange. "$10-$25"
// yields 25, not the midpoint or the sum. ok is false when no digits are present.
// Free descriptors return (0, true).
func MaxPrice(priceRange string) (hi int, ok bool) {
	if IsFree(priceRange) {
		return 0, true
	}
	for _, m := range digitsRe.FindAllString(priceRange, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			// absurdly long digit runs; skip rather than fail
			continue
		}
		if !ok || n > hi {
			hi = n
		}
		ok = true
	}
	return hi, ok
}

// IsBudget reports whether an activity priced as priceRange fits BudgetCeiling.
// Strings without digits that are not recognised as free are not budget.
func IsBudget(priceRange string) bool {
	if IsFree(priceRange) {
		return true
	}
	n, ok := MaxPrice(priceRange)
	return ok && n <= BudgetCeiling
}

// CostTier folds a set of price descriptors into a display tier.
func CostTier(prices []string) string {
	total := 0
	allFree := len(prices) > 0
	for _, p := range prices {
		if !IsFree(p) {
			allFree = false
		}
		if n, ok := MaxPrice(p); ok {
			total += n
		}
	}
	switch {
	case allFree:
		return "Free"
	case total <= 25:
		return "Under $25"
	case total <= 50:
		return "Under $50"
	case total <= 100:
		return "Under $100"
	default:
		return "Around $" + strconv.Itoa(total)
	}
}
