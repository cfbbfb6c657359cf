// internal/models/listing.go
package models

import (
	"sort"
	"strings"
)

type ListingStatus string

const (
	ListingStatusActive  ListingStatus = "active"
	ListingStatusSold    ListingStatus = "sold"
	ListingStatusExpired ListingStatus = "expired"
	ListingStatusPending ListingStatus = "pending"
)

type UsedBikeListing struct {
	ID                int64          `json:"id"`
	BikeModelID       int64          `json:"bikeModelId,omitempty"`
	BikeModelName     string         `json:"bikeModelName,omitempty"`
	CustomBrand       string         `json:"customBrand,omitempty"`
	CustomModel       string         `json:"customModel,omitempty"`
	Title             string         `json:"title"`
	Price             float64        `json:"price"`
	Mileage           int            `json:"mileage"`
	ManufacturingYear int            `json:"manufacturingYear"`
	Location          string         `json:"location"`
	IsVerified        bool           `json:"isVerified"`
	IsFeatured        bool           `json:"isFeatured"`
	Status            ListingStatus  `json:"status"`
	Images            []ListingImage `json:"images,omitempty"`
}

type ListingImage struct {
	ImageURL  string `json:"imageUrl"`
	IsPrimary bool   `json:"isPrimary"`
	Order     int    `json:"order"`
}

// BikeName prefers the linked catalogue model and falls back to the seller's
// free-text brand and model.
func (l UsedBikeListing) BikeName() string {
	if l.BikeModelName != "" {
		return l.BikeModelName
	}
	return strings.TrimSpace(l.CustomBrand + " " + l.CustomModel)
}

// PrimaryImage returns the image flagged primary, else the lowest ordered one.
func (l UsedBikeListing) PrimaryImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	for _, img := range l.Images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	imgs := make([]ListingImage, len(l.Images))
	copy(imgs, l.Images)
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Order < imgs[j].Order })
	return imgs[0].ImageURL
}
