package domain

import "time"

// Category is the closed set of product categories an item can be assigned.
type Category string

const (
	CategoryPasta       Category = "pasta"
	CategoryTomatoSauce Category = "tomato_sauce"
	CategoryHarissa     Category = "harissa"
	CategoryTuna        Category = "tuna"
	CategoryFlour       Category = "flour"
	CategorySemoule     Category = "semoule"
	CategoryChorba      Category = "chorba"
	CategoryCouscous    Category = "couscous"
	CategoryOther       Category = "other"
)

// Source records where an item's classification came from.
type Source string

const (
	SourceHeuristic     Source = "heuristic"
	SourceOpenFoodFacts Source = "openfoodfacts"
)

// Item is one entry in the shared inventory. JSON tags match the wire format
// used by clients over the sync connection. Barcode and Name carry no
// uniqueness constraint; duplicates within a list are allowed.
type Item struct {
	Barcode      string     `json:"barcode,omitempty"`
	Name         string     `json:"name"`
	Brand        string     `json:"brand,omitempty"`
	Quantity     *float64   `json:"quantity,omitempty"`
	Category     Category   `json:"category,omitempty"`
	WeightGrams  *int64     `json:"weightGrams,omitempty"`
	WeightRaw    string     `json:"weightRaw,omitempty"`
	Source       Source     `json:"classificationSource,omitempty"`
	ClassifiedAt *time.Time `json:"classifiedAt,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// Session is per-connection metadata. It lives only as long as the
// connection and owns no inventory data.
type Session struct {
	ID          string
	ConnectedAt time.Time
}
