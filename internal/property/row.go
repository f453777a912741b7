package property

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/evcraddock/luxury-estates/internal/rest"
	"github.com/evcraddock/luxury-estates/internal/sqlstore"
)

// TableName is the persisted table for listings.
const TableName = "properties"

// Row is the persisted shape of a Property. Every backend reads and writes
// listings through ToRow and FromRow.
type Row struct {
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
	ThumbnailImage string       `json:"thumbnail_image"`
	MapLocation    *MapLocation `json:"map_location"`
	Features       []string     `json:"features"`
	SortOrder      int          `json:"sort_order"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ToRow converts a listing to its persisted shape.
func ToRow(p *Property) Row {
	r := Row{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		Price:          p.Price,
		Location:       p.Location,
		Beds:           p.Beds,
		Baths:          p.Baths,
		Sqft:           p.Sqft,
		Parking:        p.Parking,
		Beachfront:     p.Beachfront,
		Type:           p.Type,
		Images:         slices.Clone(p.Images),
		ThumbnailImage: p.ThumbnailImage,
		Features:       slices.Clone(p.Features),
		SortOrder:      p.Order,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.MapLocation != nil {
		loc := *p.MapLocation
		r.MapLocation = &loc
	}
	return r
}

// FromRow converts a persisted row back to a listing.
func FromRow(r Row) (*Property, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("property row has no id")
	}
	p := &Property{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Price:          r.Price,
		Location:       r.Location,
		Beds:           r.Beds,
		Baths:          r.Baths,
		Sqft:           r.Sqft,
		Parking:        r.Parking,
		Beachfront:     r.Beachfront,
		Type:           r.Type,
		Images:         slices.Clone(r.Images),
		ThumbnailImage: r.ThumbnailImage,
		Features:       slices.Clone(r.Features),
		Order:          r.SortOrder,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.MapLocation != nil {
		loc := *r.MapLocation
		p.MapLocation = &loc
	}
	return p, nil
}

var columns = []string{
	"id", "title", "description", "price", "location", "beds", "baths", "sqft",
	"parking", "beachfront", "type", "images", "thumbnail_image", "map_location",
	"features", "sort_order", "created_at", "updated_at",
}

// Table describes the properties table for SQL backends. List columns are
// stored as JSON text.
func Table() sqlstore.Table[*Property] {
	return sqlstore.Table[*Property]{
		Name:        TableName,
		Columns:     columns,
		OrderColumn: "sort_order",
		Values:      rowValues,
		Scan:        scanProperty,
	}
}

// RemoteTable describes the properties table for the REST backend.
func RemoteTable() rest.Table[*Property, Row] {
	return rest.Table[*Property, Row]{
		Name:    TableName,
		ToRow:   ToRow,
		FromRow: FromRow,
		ID:      (*Property).GetID,
	}
}

func rowValues(p *Property) ([]any, error) {
	r := ToRow(p)

	images, err := encodeList(r.Images)
	if err != nil {
		return nil, fmt.Errorf("encoding images: %w", err)
	}
	features, err := encodeList(r.Features)
	if err != nil {
		return nil, fmt.Errorf("encoding features: %w", err)
	}
	var loc sql.NullString
	if r.MapLocation != nil {
		b, err := json.Marshal(r.MapLocation)
		if err != nil {
			return nil, fmt.Errorf("encoding map location: %w", err)
		}
		loc = sql.NullString{String: string(b), Valid: true}
	}

	return []any{
		r.ID, r.Title, r.Description, r.Price, r.Location, r.Beds, r.Baths, r.Sqft,
		r.Parking, r.Beachfront, r.Type, images, r.ThumbnailImage, loc,
		features, r.SortOrder, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	}, nil
}

// scanProperty scans a property from a database row selected in column order.
func scanProperty(row sqlstore.Scanner) (*Property, error) {
	var r Row
	var images, features string
	var loc sql.NullString

	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Price, &r.Location, &r.Beds, &r.Baths, &r.Sqft,
		&r.Parking, &r.Beachfront, &r.Type, &images, &r.ThumbnailImage, &loc,
		&features, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(images), &r.Images); err != nil {
		return nil, fmt.Errorf("decoding images of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(features), &r.Features); err != nil {
		return nil, fmt.Errorf("decoding features of %s: %w", r.ID, err)
	}
	if loc.Valid && loc.String != "" {
		r.MapLocation = &MapLocation{}
		if err := json.Unmarshal([]byte(loc.String), r.MapLocation); err != nil {
			return nil, fmt.Errorf("decoding map location of %s: %w", r.ID, err)
		}
	}

	return FromRow(r)
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}
