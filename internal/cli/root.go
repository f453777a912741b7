// Package cli defines the cobra command tree for luxury-estates.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/luxury-estates/internal/client"
	"github.com/evcraddock/luxury-estates/internal/config"
	"github.com/evcraddock/luxury-estates/internal/db"
)

var (
	flagFormat string
	flagConfig string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "le",
		Short:         "Run and manage a luxury real-estate site",
		Long:          "Serve the luxury-estates storefront and studio, and manage listings, property types, inquiries and users from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (YAML)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.luxury-estates/estates.db)")

	root.AddCommand(
		newServeCmd(),
		newPropertyCmd(),
		newTypeCmd(),
		newInquiriesCmd(),
		newUserCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// loadServerConfig reads the server configuration named by --config and
// applies the --db override.
func loadServerConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

// openDB opens the SQLite database from the config, the --db flag or the
// default path.
func openDB(cfg config.Config) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the luxury-estates API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
