package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/ottolearn-tutor/internal/app"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the chunk and usage tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := app.OpenDB(rt.log, rt.cfg)
			if err != nil {
				return err
			}
			defer pg.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", pg.DB().Dialector.Name())
			return nil
		},
	}
}
