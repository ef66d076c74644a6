package cli

import (
	"fmt"

	"github.com/richxcame/fleet/pkg/database"
	"github.com/spf13/cobra"
)

// parseDirection maps the optional migrate argument to a direction
func parseDirection(args []string) (database.Direction, error) {
	if len(args) == 0 {
		return database.Up, nil
	}
	switch dir := database.Direction(args[0]); dir {
	case database.Up, database.Down:
		return dir, nil
	default:
		return "", fmt.Errorf("unknown direction %q: expected up or down", args[0])
	}
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(database.Up), string(database.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := parseDirection(args)
			if err != nil {
				return err
			}
			cfg, err := a.setup()
			if err != nil {
				return err
			}

			version, err := database.Migrate(cfg.Database.MigrationURL(), direction)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "schema %s complete, version %d\n", direction, version)
			return nil
		},
	}
}
