package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/luxury-estates/internal/auth"
)

// withUsers opens the local database for the user commands. These talk to
// SQLite directly so the first studio user can be added before anyone can
// log in.
func withUsers(fn func(*auth.UserStore) error) error {
	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)
	return fn(auth.NewUserStore(database, cfg.AdminEmail))
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage studio users (local database)",
	}

	var name string
	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Allow an email to sign in to the studio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(users *auth.UserStore) error {
				u, err := users.Add(args[0], name)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), u)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User #%d %s added.\n", u.ID, u.Email)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List studio users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(users *auth.UserStore) error {
				all, err := users.List()
				if err != nil {
					return err
				}
				if isJSON() {
					if all == nil {
						all = []*auth.User{}
					}
					return printJSON(cmd.OutOrStdout(), all)
				}
				if len(all) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users. The admin email can always sign in.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tADDED")
				for _, u := range all {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.CreatedAt.Format("2006-01-02"))
				}
				return tw.Flush()
			})
		},
	}

	remove := &cobra.Command{
		Use:     "remove <id|email>",
		Aliases: []string{"rm"},
		Short:   "Revoke studio access",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(users *auth.UserStore) error {
				id, err := resolveUser(users, args[0])
				if err != nil {
					return err
				}
				if err := users.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s removed.\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

// resolveUser accepts a numeric ID or an email address.
func resolveUser(users *auth.UserStore, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	u, err := users.GetByEmail(ref)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", err, ref)
	}
	return u.ID, nil
}
