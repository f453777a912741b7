// Package property provides the listing domain model, its persisted row
// mapping and the service used by the studio and the API.
package property

import (
	"slices"
	"time"
)

// MapLocation is a geocoded point for a listing.
type MapLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Property is a real-estate listing.
type Property struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Price          int64        `json:"price"`
	Location       string       `json:"location"`
	Beds           int          `json:"beds"`
	Baths          float64      `json:"baths"`
	Sqft           int          `json:"sqft"`
	Parking        bool         `json:"parking"`
	Beachfront     bool         `json:"beachfront"`
	Type           string       `json:"type"`
	Images         []string     `json:"images"`
	ThumbnailImage string       `json:"thumbnailImage"`
	MapLocation    *MapLocation `json:"mapLocation,omitempty"`
	Features       []string     `json:"features"`
	Order          int          `json:"order"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (p *Property) GetID() string { return p.ID }
func (p *Property) SetID(id string) { p.ID = id }
func (p *Property) GetOrder() int { return p.Order }
func (p *Property) SetOrder(o int) { p.Order = o }
func (p *Property) GetCreatedAt() time.Time { return p.CreatedAt }
func (p *Property) SetCreatedAt(t time.Time) { p.CreatedAt = t }

// Clone returns a deep copy of p.
func (p *Property) Clone() *Property {
	c := *p
	c.Images = slices.Clone(p.Images)
	c.Features = slices.Clone(p.Features)
	if p.MapLocation != nil {
		loc := *p.MapLocation
		c.MapLocation = &loc
	}
	return &c
}

// Thumbnail returns the thumbnail URL, falling back to the first image.
func (p *Property) Thumbnail() string {
	if p.ThumbnailImage != "" {
		return p.ThumbnailImage
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// Draft holds the editable fields of a listing, as submitted by the studio
// form or the API.
type Draft struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Price          int64        `json:"price"`
	Location       string       `json:"location"`
	Beds           int          `json:"beds"`
	Baths          float64      `json:"baths"`
	Sqft           int          `json:"sqft"`
	Parking        bool         `json:"parking"`
	Beachfront     bool         `json:"beachfront"`
	Type           string       `json:"type"`
	Images         []string     `json:"images"`
	ThumbnailImage string       `json:"thumbnailImage"`
	MapLocation    *MapLocation `json:"mapLocation,omitempty"`
	Features       []string     `json:"features"`
}

// DraftOf returns the editable fields of p.
func DraftOf(p *Property) Draft {
	c := p.Clone()
	return Draft{
		Title:          c.Title,
		Description:    c.Description,
		Price:          c.Price,
		Location:       c.Location,
		Beds:           c.Beds,
		Baths:          c.Baths,
		Sqft:           c.Sqft,
		Parking:        c.Parking,
		Beachfront:     c.Beachfront,
		Type:           c.Type,
		Images:         c.Images,
		ThumbnailImage: c.ThumbnailImage,
		MapLocation:    c.MapLocation,
		Features:       c.Features,
	}
}

func (d Draft) apply(p *Property) {
	p.Title = d.Title
	p.Description = d.Description
	p.Price = d.Price
	p.Location = d.Location
	p.Beds = d.Beds
	p.Baths = d.Baths
	p.Sqft = d.Sqft
	p.Parking = d.Parking
	p.Beachfront = d.Beachfront
	p.Type = d.Type
	p.Images = slices.Clone(d.Images)
	p.ThumbnailImage = d.ThumbnailImage
	if p.ThumbnailImage == "" && len(p.Images) > 0 {
		p.ThumbnailImage = p.Images[0]
	}
	p.Features = slices.Clone(d.Features)
	if d.MapLocation != nil {
		loc := *d.MapLocation
		p.MapLocation = &loc
	}
}
