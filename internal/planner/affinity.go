package planner

import "pulse/internal/domain"

var affinity = map[domain.CompanionMode][]domain.Category{
	domain.CompanionSolo: {
		domain.CategoryCoffee, domain.CategoryArt, domain.CategoryOutdoors,
		domain.CategoryFitness, domain.CategoryLiveMusic,
	},
	domain.CompanionDate: {
		domain.CategoryRestaurant, domain.CategoryFood, domain.CategoryBars,
		domain.CategoryLiveMusic, domain.CategoryArt, domain.CategoryActivityVenue,
	},
	domain.CompanionFriends: {
		domain.CategoryBars, domain.CategoryLiveMusic, domain.CategoryFood,
		domain.CategoryActivityVenue, domain.CategoryPopup, domain.CategorySeasonal,
	},
	domain.CompanionFamily: {
		domain.CategoryOutdoors, domain.CategoryFood, domain.CategorySeasonal,
		domain.CategoryActivityVenue, domain.CategoryArt, domain.CategoryPopup,
	},
}

var defaultArchetype = map[domain.CompanionMode]domain.Archetype{
	domain.CompanionSolo:    domain.ArchetypeSoloChill,
	domain.CompanionDate:    domain.ArchetypeDateNight,
	domain.CompanionFriends: domain.ArchetypeSocial,
	domain.CompanionFamily:  domain.ArchetypeFamilyFun,
}

type label struct{ name, description string }

var archetypeLabels = map[domain.Archetype]label{
	domain.ArchetypeDateNight: {"Date Night", "A curated evening for two: good food, a drink and something to talk about."},
	domain.ArchetypeSocial:    {"Squad Outing", "Top-rated spots to round up the group and keep the night moving."},
	domain.ArchetypeSoloChill: {"Solo Recharge", "An easygoing route for some well-earned time on your own."},
	domain.ArchetypeFamilyFun: {"Family Day Out", "Kid-friendly picks the whole family can enjoy together."},
	domain.ArchetypeCustom:    {"Your Custom Plan", "A plan built from the best matches for your preferences."},
}

var (
	budgetLabel    = label{"Budget-Friendly Option", "Great times that keep each stop at $25 or less."}
	adventureLabel = label{"Adventure Mix", "Something different at every stop: one standout from each kind of outing."}
)

// Affinity returns the preferred categories for mode, in preference order.
func Affinity(mode domain.CompanionMode) []domain.Category {
	return append([]domain.Category(nil), affinity[mode]...)
}

// ResolveArchetype returns a when set, otherwise the default for mode.
// Unknown modes fall back to CUSTOM.
func ResolveArchetype(mode domain.CompanionMode, a domain.Archetype) domain.Archetype {
	if a != "" {
		return a
	}
	if d, ok := defaultArchetype[mode]; ok {
		return d
	}
	return domain.ArchetypeCustom
}

func labelFor(a domain.Archetype) label {
	if l, ok := archetypeLabels[a]; ok {
		return l
	}
	return archetypeLabels[domain.ArchetypeCustom]
}

func inAffinity(set []domain.Category, c domain.Category) bool {
	for _, x := range set {
		if x == c {
			return true
		}
	}
	return false
}
