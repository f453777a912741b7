package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/luxury-estates/internal/email"
	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single listing in text format.
func printPropertySummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "%s\n", p.Title)
	fmt.Fprintf(w, "  ID:        %s\n", p.ID)
	fmt.Fprintf(w, "  Position:  %d\n", p.Order+1)
	fmt.Fprintf(w, "  Price:     %s\n", formatPrice(p.Price))
	if p.Location != "" {
		fmt.Fprintf(w, "  Location:  %s\n", p.Location)
	}
	if p.Type != "" {
		fmt.Fprintf(w, "  Type:      %s\n", p.Type)
	}
	fmt.Fprintf(w, "  Beds:      %d\n", p.Beds)
	fmt.Fprintf(w, "  Baths:     %g\n", p.Baths)
	if p.Sqft > 0 {
		fmt.Fprintf(w, "  Sqft:      %s\n", email.FormatPrice(p.Sqft))
	}
	if flags := amenities(p); flags != "" {
		fmt.Fprintf(w, "  Amenities: %s\n", flags)
	}
	if len(p.Features) > 0 {
		fmt.Fprintf(w, "  Features:  %s\n", strings.Join(p.Features, ", "))
	}
	fmt.Fprintf(w, "  Images:    %d\n", len(p.Images))
	if loc := p.MapLocation; loc != nil {
		fmt.Fprintf(w, "  Map:       %.5f, %.5f\n", loc.Lat, loc.Lng)
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", p.Description)
	}
}

// printPropertyTable prints listings in display order.
func printPropertyTable(w io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(w, "No properties found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "#\tID\tTITLE\tPRICE\tTYPE\tBED\tBATH\tLOCATION"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "-\t--\t-----\t-----\t----\t---\t----\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, p := range props {
		typ := p.Type
		if typ == "" {
			typ = "-"
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%g\t%s\n",
			p.Order+1, p.ID, truncate(p.Title, 32), formatPrice(p.Price), typ,
			p.Beds, p.Baths, truncate(p.Location, 28)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nTotal: %d properties\n", len(props))
	return nil
}

// printTypeTable prints property types in display order.
func printTypeTable(w io.Writer, items []*proptype.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No property types.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "#\tID\tNAME"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, it := range items {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\n", it.Order+1, it.ID, it.Name); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// printInquiries prints inquiries, newest first.
func printInquiries(w io.Writer, inqs []*inquiry.Inquiry) {
	if len(inqs) == 0 {
		fmt.Fprintln(w, "No inquiries.")
		return
	}
	for _, inq := range inqs {
		contact := inq.Email
		if inq.Phone != "" {
			contact += ", " + inq.Phone
		}
		fmt.Fprintf(w, "[%s] #%d %s <%s> about %s\n  %s\n\n",
			inq.CreatedAt.Format("2006-01-02 15:04"), inq.ID, inq.Name, contact, inq.PropertyID, inq.Message)
	}
}

func formatPrice(dollars int64) string {
	return "$" + email.FormatPrice(dollars)
}

func amenities(p *property.Property) string {
	var out []string
	if p.Beachfront {
		out = append(out, "beachfront")
	}
	if p.Parking {
		out = append(out, "parking")
	}
	return strings.Join(out, ", ")
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
