package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/luxury-estates/internal/property"
)

func newPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"properties", "p"},
		Short:   "Manage listings",
	}
	cmd.AddCommand(
		newPropertyListCmd(),
		newPropertyShowCmd(),
		newPropertyAddCmd(),
		newPropertyUpdateCmd(),
		newPropertyRemoveCmd(),
		newPropertyMoveCmd(),
		newPropertyLocateCmd(),
		newPropertyCompactCmd(),
	)
	return cmd
}

func newPropertyListCmd() *cobra.Command {
	var f property.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := newAPIClient().ListProperties(f)
			if err != nil {
				return fmt.Errorf("listing properties: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), props)
			}
			return printPropertyTable(cmd.OutOrStdout(), props)
		},
	}

	fs := cmd.Flags()
	fs.Int64Var(&f.MinPrice, "min-price", 0, "minimum price")
	fs.Int64Var(&f.MaxPrice, "max-price", 0, "maximum price")
	fs.IntVar(&f.MinBeds, "beds", 0, "minimum bedrooms")
	fs.Float64Var(&f.MinBaths, "baths", 0, "minimum bathrooms")
	fs.StringVar(&f.Type, "type", "", "property type")
	fs.StringVarP(&f.Query, "search", "q", "", "text to find in title, location or description")
	fs.BoolVar(&f.Parking, "parking", false, "only listings with parking")
	fs.BoolVar(&f.Beachfront, "beachfront", false, "only beachfront listings")
	fs.IntVar(&f.Limit, "limit", 0, "maximum number of results")

	return cmd
}

func newPropertyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newAPIClient().GetProperty(args[0])
			if err != nil {
				return fmt.Errorf("getting property: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printPropertySummary(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

// draftFlags binds the editable listing fields to command flags.
type draftFlags struct {
	d property.Draft
}

func (f *draftFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.d.Title, "title", "", "listing title")
	fs.StringVar(&f.d.Description, "description", "", "listing description")
	fs.Int64Var(&f.d.Price, "price", 0, "price in whole dollars")
	fs.StringVar(&f.d.Location, "location", "", "location text")
	fs.IntVar(&f.d.Beds, "beds", 0, "bedrooms")
	fs.Float64Var(&f.d.Baths, "baths", 0, "bathrooms")
	fs.IntVar(&f.d.Sqft, "sqft", 0, "interior square feet")
	fs.BoolVar(&f.d.Parking, "parking", false, "has parking")
	fs.BoolVar(&f.d.Beachfront, "beachfront", false, "is beachfront")
	fs.StringVar(&f.d.Type, "type", "", "property type")
	fs.StringArrayVar(&f.d.Images, "image", nil, "image URL (repeatable)")
	fs.StringVar(&f.d.ThumbnailImage, "thumbnail", "", "thumbnail URL (default: first image)")
	fs.StringArrayVar(&f.d.Features, "feature", nil, "feature line (repeatable)")
}

// merge copies the flags the user set onto d.
func (f *draftFlags) merge(cmd *cobra.Command, d *property.Draft) {
	set := cmd.Flags().Changed
	if set("title") {
		d.Title = f.d.Title
	}
	if set("description") {
		d.Description = f.d.Description
	}
	if set("price") {
		d.Price = f.d.Price
	}
	if set("location") {
		d.Location = f.d.Location
	}
	if set("beds") {
		d.Beds = f.d.Beds
	}
	if set("baths") {
		d.Baths = f.d.Baths
	}
	if set("sqft") {
		d.Sqft = f.d.Sqft
	}
	if set("parking") {
		d.Parking = f.d.Parking
	}
	if set("beachfront") {
		d.Beachfront = f.d.Beachfront
	}
	if set("type") {
		d.Type = f.d.Type
	}
	if set("image") {
		d.Images = f.d.Images
	}
	if set("thumbnail") {
		d.ThumbnailImage = f.d.ThumbnailImage
	}
	if set("feature") {
		d.Features = f.d.Features
	}
}

func newPropertyAddCmd() *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a listing",
		Long:  "Add a listing. Where it lands in the display order depends on the server's insert policy.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newAPIClient().AddProperty(f.d)
			if err != nil {
				return fmt.Errorf("adding property: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Property added.")
			printPropertySummary(cmd.OutOrStdout(), p)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newPropertyUpdateCmd() *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a listing",
		Long:  "Change the fields given as flags. Fields not named keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			cur, err := c.GetProperty(args[0])
			if err != nil {
				return fmt.Errorf("getting property: %w", err)
			}
			d := property.DraftOf(cur)
			f.merge(cmd, &d)

			p, err := c.UpdateProperty(args[0], d)
			if err != nil {
				return fmt.Errorf("updating property: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Property updated.")
			printPropertySummary(cmd.OutOrStdout(), p)
			return nil
		},
	}
	f.register(cmd)

	return cmd
}

func newPropertyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a listing and its inquiries",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().DeleteProperty(args[0]); err != nil {
				return fmt.Errorf("removing property: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Property %s removed.\n", args[0])
			return nil
		},
	}
}

func newPropertyMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a listing to another position",
		Long:  "Move the listing at position <from> to position <to>. Positions start at 1, as shown by 'le property list'.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseMove(args)
			if err != nil {
				return err
			}
			props, err := newAPIClient().ReorderProperties(from, to)
			if err != nil {
				return fmt.Errorf("moving property: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), props)
			}
			return printPropertyTable(cmd.OutOrStdout(), props)
		},
	}
}

func newPropertyLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <id> [address...]",
		Short: "Geocode a listing for its map",
		Long:  "Look up map coordinates for a listing. Without an address the listing's location text is used.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newAPIClient().LocateProperty(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("locating property: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			if p.MapLocation == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No map location found.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.5f, %.5f\n", p.MapLocation.Address, p.MapLocation.Lat, p.MapLocation.Lng)
			return nil
		},
	}
}

func newPropertyCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Renumber listings so positions have no gaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := newAPIClient().CompactProperties()
			if err != nil {
				return fmt.Errorf("compacting properties: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), props)
			}
			return printPropertyTable(cmd.OutOrStdout(), props)
		},
	}
}

// parseMove converts 1-based positions from the command line to the 0-based
// indexes the API takes.
func parseMove(args []string) (from, to int, err error) {
	pos := make([]int, 2)
	for i, a := range args[:2] {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid position %q: must be a number from 1", a)
		}
		pos[i] = n - 1
	}
	return pos[0], pos[1], nil
}
