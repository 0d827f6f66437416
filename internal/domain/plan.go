package domain

import (
	"fmt"
	"strings"
	"time"
)

type CompanionMode string

const (
	CompanionSolo    CompanionMode = "SOLO"
	CompanionDate    CompanionMode = "DATE"
	CompanionFriends CompanionMode = "FRIENDS"
	CompanionFamily  CompanionMode = "FAMILY"
)

type Archetype string

const (
	ArchetypeDateNight Archetype = "DATE_NIGHT"
	ArchetypeSocial    Archetype = "SOCIAL"
	ArchetypeSoloChill Archetype = "SOLO_CHILL"
	ArchetypeFamilyFun Archetype = "FAMILY_FUN"
	ArchetypeCustom    Archetype = "CUSTOM"
)

// ParseCompanionMode accepts the wire value case-insensitively.
func ParseCompanionMode(s string) (CompanionMode, error) {
	switch m := CompanionMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case CompanionSolo, CompanionDate, CompanionFriends, CompanionFamily:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown companionMode %q", ErrInvalidInput, s)
}

// ParseArchetype returns "" for an empty value, meaning "derive from the companion mode".
func ParseArchetype(s string) (Archetype, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	switch a := Archetype(strings.ToUpper(strings.TrimSpace(s))); a {
	case ArchetypeDateNight, ArchetypeSocial, ArchetypeSoloChill, ArchetypeFamilyFun, ArchetypeCustom:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown archetype %q", ErrInvalidInput, s)
}

type Strategy string

const (
	StrategyBestMatch Strategy = "best_match"
	StrategyBudget    Strategy = "budget"
	StrategyAdventure Strategy = "adventure"
)

// PlanActivity is the summary of an activity as it appears inside a plan.
type PlanActivity struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	VenueName    *string   `json:"venueName"`
	Neighborhood *string   `json:"neighborhood"`
	StartTime    time.Time `json:"startTime"`
	PriceRange   string    `json:"priceRange"`
	Position     int       `json:"position"` // 1-based walking order
}

type GeneratedPlan struct {
	Strategy      Strategy       `json:"strategy"`
	Archetype     Archetype      `json:"archetype"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Activities    []PlanActivity `json:"activities"`
	EstimatedCost string         `json:"estimatedCost"`
	Neighborhoods []string       `json:"neighborhoods"`
}

type PlanRequest struct {
	UserID    string
	Mode      CompanionMode
	Archetype Archetype // "" derives from Mode
	From, To  time.Time
}

type PlanResult struct {
	Plans   []GeneratedPlan `json:"plans"`
	Message string          `json:"message,omitempty"`
}

type SavedPlan struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Plan      GeneratedPlan `json:"plan"`
	CreatedAt time.Time     `json:"createdAt"`
}
