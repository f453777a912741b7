package property

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter selects listings on the buy page. Zero values do not filter.
type Filter struct {
	MinPrice   int64
	MaxPrice   int64
	MinBeds    int
	MinBaths   float64
	Type       string
	Query      string
	Parking    bool
	Beachfront bool
	Limit      int
}

// Match reports whether p passes every set criterion.
func (f Filter) Match(p *Property) bool {
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.MinBeds > 0 && p.Beds < f.MinBeds {
		return false
	}
	if f.MinBaths > 0 && p.Baths < f.MinBaths {
		return false
	}
	if f.Type != "" && !strings.EqualFold(p.Type, f.Type) {
		return false
	}
	if f.Parking && !p.Parking {
		return false
	}
	if f.Beachfront && !p.Beachfront {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(p.Title + "\n" + p.Location + "\n" + p.Description)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// FilterFromQuery reads a filter from URL query parameters. Unparseable
// numbers are ignored.
func FilterFromQuery(v url.Values) Filter {
	f := Filter{
		Type:       strings.TrimSpace(v.Get("type")),
		Query:      strings.TrimSpace(v.Get("q")),
		Parking:    isSet(v.Get("parking")),
		Beachfront: isSet(v.Get("beachfront")),
	}
	f.MinPrice, _ = strconv.ParseInt(v.Get("minPrice"), 10, 64)
	f.MaxPrice, _ = strconv.ParseInt(v.Get("maxPrice"), 10, 64)
	f.MinBeds, _ = strconv.Atoi(v.Get("beds"))
	f.MinBaths, _ = strconv.ParseFloat(v.Get("baths"), 64)
	f.Limit, _ = strconv.Atoi(v.Get("limit"))
	return f
}

// Values encodes f as URL query parameters understood by FilterFromQuery.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.MinPrice > 0 {
		v.Set("minPrice", strconv.FormatInt(f.MinPrice, 10))
	}
	if f.MaxPrice > 0 {
		v.Set("maxPrice", strconv.FormatInt(f.MaxPrice, 10))
	}
	if f.MinBeds > 0 {
		v.Set("beds", strconv.Itoa(f.MinBeds))
	}
	if f.MinBaths > 0 {
		v.Set("baths", strconv.FormatFloat(f.MinBaths, 'f', -1, 64))
	}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Parking {
		v.Set("parking", "1")
	}
	if f.Beachfront {
		v.Set("beachfront", "1")
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

func isSet(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
