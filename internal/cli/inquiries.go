package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newInquiriesCmd() *cobra.Command {
	var propertyID string

	cmd := &cobra.Command{
		Use:     "inquiries",
		Aliases: []string{"inquiry"},
		Short:   "List inquiries sent from listing pages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inqs, err := newAPIClient().ListInquiries(propertyID)
			if err != nil {
				return fmt.Errorf("listing inquiries: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), inqs)
			}
			printInquiries(cmd.OutOrStdout(), inqs)
			return nil
		},
	}
	cmd.Flags().StringVar(&propertyID, "property", "", "only inquiries for this listing ID")

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an inquiry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid inquiry ID %q", args[0])
			}
			if err := newAPIClient().DeleteInquiry(id); err != nil {
				return fmt.Errorf("removing inquiry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inquiry #%d removed.\n", id)
			return nil
		},
	})
	return cmd
}
