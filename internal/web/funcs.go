package web

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/evcraddock/luxury-estates/internal/email"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

var funcMap = template.FuncMap{
	"formatPrice": email.FormatPrice[int64],
	"formatBaths": formatBaths,
	"formatInt":   email.FormatPrice[int],
	"mapEmbed":    mapEmbed,
	"listed":      proptype.Listed,
	"inc":         func(i int) int { return i + 1 },
	"lines":       lines,
}

func formatBaths(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// mapEmbed returns the OpenStreetMap embed URL centred on loc.
func mapEmbed(loc *property.MapLocation) string {
	if loc == nil {
		return ""
	}
	const d = 0.01
	return fmt.Sprintf(
		"https://www.openstreetmap.org/export/embed.html?bbox=%f,%f,%f,%f&layer=mapnik&marker=%f,%f",
		loc.Lng-d, loc.Lat-d, loc.Lng+d, loc.Lat+d, loc.Lat, loc.Lng,
	)
}

// lines joins values one per line for textarea fields.
func lines(v []string) string {
	return strings.Join(v, "\n")
}
