// internal/models/bike.go
package models

import "strings"

type Category string

const (
	CategorySports    Category = "sports"
	CategoryNaked     Category = "naked"
	CategoryCruiser   Category = "cruiser"
	CategoryCommuter  Category = "commuter"
	CategoryScooter   Category = "scooter"
	CategoryAdventure Category = "adventure"
	CategoryCafeRacer Category = "cafe_racer"
	CategoryOffroad   Category = "offroad"
)

type Brand struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	IsPopular bool   `json:"isPopular"`
}

// BikeModel is a catalogue entry. Nullable columns are read as zero values.
type BikeModel struct {
	ID              int64    `json:"id"`
	Brand           Brand    `json:"brand"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Category        Category `json:"category"`
	EngineCapacity  int      `json:"engineCapacity"`
	Price           float64  `json:"price"`
	IsAvailable     bool     `json:"isAvailable"`
	PrimaryImage    string   `json:"primaryImage"`
	PopularityScore int      `json:"popularityScore"`
}

// DisplayName is "<brand> <model>", the way the catalogue lists bikes.
func (b BikeModel) DisplayName() string {
	return strings.TrimSpace(b.Brand.Name + " " + b.Name)
}
