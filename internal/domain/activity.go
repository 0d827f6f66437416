package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryArt           Category = "ART"
	CategoryLiveMusic     Category = "LIVE_MUSIC"
	CategoryBars          Category = "BARS"
	CategoryOutdoors      Category = "OUTDOORS"
	CategoryFitness       Category = "FITNESS"
	CategoryCoffee        Category = "COFFEE"
	CategorySeasonal      Category = "SEASONAL"
	CategoryPopup         Category = "POPUP"
	CategoryRestaurant    Category = "RESTAURANT"
	CategoryActivityVenue Category = "ACTIVITY_VENUE"
	CategoryOther         Category = "OTHER"
)

var Categories = []Category{
	CategoryFood, CategoryArt, CategoryLiveMusic, CategoryBars, CategoryOutdoors, CategoryFitness,
	CategoryCoffee, CategorySeasonal, CategoryPopup, CategoryRestaurant, CategoryActivityVenue, CategoryOther,
}

// categorySynonyms maps free-text listing categories onto the fixed set.
var categorySynonyms = map[string]Category{
	"food":           CategoryFood,
	"food_truck":     CategoryFood,
	"market":         CategoryFood,
	"art":            CategoryArt,
	"arts":           CategoryArt,
	"museum":         CategoryArt,
	"gallery":        CategoryArt,
	"theater":        CategoryArt,
	"theatre":        CategoryArt,
	"music":          CategoryLiveMusic,
	"live_music":     CategoryLiveMusic,
	"concert":        CategoryLiveMusic,
	"concerts":       CategoryLiveMusic,
	"bar":            CategoryBars,
	"bars":           CategoryBars,
	"brewery":        CategoryBars,
	"nightlife":      CategoryBars,
	"outdoors":       CategoryOutdoors,
	"outdoor":        CategoryOutdoors,
	"park":           CategoryOutdoors,
	"hike":           CategoryOutdoors,
	"hiking":         CategoryOutdoors,
	"fitness":        CategoryFitness,
	"gym":            CategoryFitness,
	"yoga":           CategoryFitness,
	"run":            CategoryFitness,
	"coffee":         CategoryCoffee,
	"cafe":           CategoryCoffee,
	"seasonal":       CategorySeasonal,
	"holiday":        CategorySeasonal,
	"festival":       CategorySeasonal,
	"popup":          CategoryPopup,
	"pop_up":         CategoryPopup,
	"restaurant":     CategoryRestaurant,
	"restaurants":    CategoryRestaurant,
	"dining":         CategoryRestaurant,
	"activity":       CategoryActivityVenue,
	"activity_venue": CategoryActivityVenue,
	"arcade":         CategoryActivityVenue,
	"bowling":        CategoryActivityVenue,
	"other":          CategoryOther,
}

// NormalizeCategory folds listing text ("Live Music", "pop-up", "Cafe") into a Category.
// Unknown values become OTHER.
func NormalizeCategory(s string) Category {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(k)
	if c, ok := categorySynonyms[k]; ok {
		return c
	}
	if IsValidCategory(strings.ToUpper(k)) {
		return Category(strings.ToUpper(k))
	}
	return CategoryOther
}

func IsValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Activity is one schedulable event or place. Nullable columns are pointers.
type Activity struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Category     Category   `json:"category"`
	VenueName    *string    `json:"venueName,omitempty"`
	Address      *string    `json:"address,omitempty"`
	Neighborhood *string    `json:"neighborhood,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	PriceRange   string     `json:"priceRange"`
	RatingScore  *float64   `json:"ratingScore,omitempty"`
	Source       string     `json:"source,omitempty"`
	URL          *string    `json:"url,omitempty"`
}

type ActivityQuery struct {
	From     time.Time
	To       time.Time
	Category *Category
	Limit    int
}
