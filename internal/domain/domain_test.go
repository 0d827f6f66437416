package domain_test

import (
	"errors"
	"testing"

	"pulse/internal/domain"
)

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]domain.Category{
		"Live Music":     domain.CategoryLiveMusic,
		"concert":        domain.CategoryLiveMusic,
		"pop-up":         domain.CategoryPopup,
		"Cafe":           domain.CategoryCoffee,
		"ACTIVITY_VENUE": domain.CategoryActivityVenue,
		"activity venue": domain.CategoryActivityVenue,
		"RESTAURANT":     domain.CategoryRestaurant,
		"knitting":       domain.CategoryOther,
		"":               domain.CategoryOther,
	}
	for in, want := range cases {
		if got := domain.NormalizeCategory(in); got != want {
			t.Fatalf("NormalizeCategory(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseCompanionMode(t *testing.T) {
	m, err := domain.ParseCompanionMode("date")
	if err != nil || m != domain.CompanionDate {
		t.Fatalf("got %q, %v", m, err)
	}
	if _, err := domain.ParseCompanionMode("COWORKERS"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseArchetype(t *testing.T) {
	a, err := domain.ParseArchetype("")
	if err != nil || a != "" {
		t.Fatalf("empty archetype should derive, got %q, %v", a, err)
	}
	a, err = domain.ParseArchetype("family_fun")
	if err != nil || a != domain.ArchetypeFamilyFun {
		t.Fatalf("got %q, %v", a, err)
	}
	if _, err := domain.ParseArchetype("BRUNCH"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
