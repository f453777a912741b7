package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "type",
		Aliases: []string{"types"},
		Short:   "Manage property types",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List property types in display order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				items, err := newAPIClient().ListTypes()
				if err != nil {
					return fmt.Errorf("listing types: %w", err)
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), items)
				}
				return printTypeTable(cmd.OutOrStdout(), items)
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a property type",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				it, err := newAPIClient().AddType(strings.Join(args, " "))
				if err != nil {
					return fmt.Errorf("adding type: %w", err)
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), it)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s).\n", it.Name, it.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a property type",
			Long:  "Rename a property type. Listings that use the old name keep it.",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				it, err := newAPIClient().RenameType(args[0], strings.Join(args[1:], " "))
				if err != nil {
					return fmt.Errorf("renaming type: %w", err)
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), it)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %q.\n", it.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:     "remove <id>",
			Aliases: []string{"rm"},
			Short:   "Remove a property type",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := newAPIClient().DeleteType(args[0]); err != nil {
					return fmt.Errorf("removing type: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Type %s removed.\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "move <from> <to>",
			Short: "Move a property type to another position (1-based)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, to, err := parseMove(args)
				if err != nil {
					return err
				}
				items, err := newAPIClient().ReorderTypes(from, to)
				if err != nil {
					return fmt.Errorf("moving type: %w", err)
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), items)
				}
				return printTypeTable(cmd.OutOrStdout(), items)
			},
		},
	)
	return cmd
}
