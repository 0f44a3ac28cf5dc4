// Command wiptool administers the lot store: SQL schema setup, importing a
// flat-file registry into SQL, and printing the lane layout.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"wip-tracker-service/internal/adapters/repositories"
	"wip-tracker-service/internal/config"
	"wip-tracker-service/internal/platform/db"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wiptool",
		Short:        "Administer the WIP tracker lot store",
		SilenceUsage: true,
	}
	root.AddCommand(newSchemaCmd(), newImportCmd(), newLanesCmd())
	return root
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the lots table for the configured SQL driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, conn, err := openSQL()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := repositories.InitSchema(cmd.Context(), conn, repositories.Dialect(cfg.StoreDriver)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.StoreDriver)
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a products.json registry into the SQL lot store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, conn, err := openSQL()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx := cmd.Context()
			dialect := repositories.Dialect(cfg.StoreDriver)
			if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
				return err
			}

			n, err := repositories.SeedFromRegistry(ctx, conn, dialect, afs.New(), from)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d lots from %s\n", n, from)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "data/products.json", "registry file to import")
	return cmd
}

func newLanesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lanes",
		Short: "Print the effective lane layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.ValidateLanes(cfg.Lanes); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LANE\tX\tY\tSTART\tSPACING\tX SHIFT\tFIRST SLOT")
			for _, l := range cfg.Lanes {
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%g\t(%g, %g)\n",
					l.Name, l.X, l.Y, l.StartOffset, l.Spacing, l.XShift, l.SlotX(), l.SlotY(0))
			}
			return tw.Flush()
		},
	}
}

// openSQL loads config and connects to the SQL store it names.
func openSQL() (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.StoreDriver == config.DriverJSON {
		return nil, nil, fmt.Errorf("STORE_DRIVER must be %q or %q for this command", config.DriverSQLite, config.DriverPostgres)
	}

	conn, err := db.Open(cfg.StoreDriver, cfg.SQLDSN())
	if err != nil {
		return nil, nil, err
	}
	return cfg, conn, nil
}
