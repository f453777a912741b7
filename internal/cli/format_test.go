package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name     string
		dollars  int64
		expected string
	}{
		{"zero", 0, "$0"},
		{"small", 999, "$999"},
		{"thousands", 250000, "$250,000"},
		{"millions", 12500000, "$12,500,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPrice(tt.dollars); got != tt.expected {
				t.Errorf("formatPrice(%d) = %q, want %q", tt.dollars, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
		{"multibyte", "Côte d'Azur villa", 8, "Côte ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.max); got != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
			}
		})
	}
}

func TestPrintPropertyTable(t *testing.T) {
	var buf bytes.Buffer
	props := []*property.Property{
		{ID: "p1", Title: "Cliffside Retreat", Price: 4250000, Type: "Home", Beds: 5, Baths: 4.5, Location: "Malibu", Order: 0},
		{ID: "p2", Title: "Ocean Lot", Price: 900000, Order: 1},
	}
	if err := printPropertyTable(&buf, props); err != nil {
		t.Fatalf("print: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"TITLE", "Cliffside Retreat", "$4,250,000", "4.5", "Total: 2 properties"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[2], "1 ") || !strings.HasPrefix(lines[3], "2 ") {
		t.Errorf("rows should show 1-based positions:\n%s", out)
	}
}

func TestPrintPropertyTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printPropertyTable(&buf, nil); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "No properties found.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintPropertySummary(t *testing.T) {
	var buf bytes.Buffer
	printPropertySummary(&buf, &property.Property{
		ID:          "p1",
		Title:       "Harbor House",
		Price:       1500000,
		Beachfront:  true,
		Parking:     true,
		Features:    []string{"Dock", "Pool"},
		MapLocation: &property.MapLocation{Lat: 25.5, Lng: -80.25},
	})

	out := buf.String()
	for _, want := range []string{"Harbor House", "$1,500,000", "beachfront, parking", "Dock, Pool", "25.50000, -80.25000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTypeTable(t *testing.T) {
	var buf bytes.Buffer
	if err := printTypeTable(&buf, []*proptype.Item{{ID: "t1", Name: "Home"}, {ID: "t2", Name: "Land", Order: 1}}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "2  t2  Land") {
		t.Errorf("output:\n%s", buf.String())
	}
}
