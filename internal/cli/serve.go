package cli

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/ottolearn-tutor/internal/app"
)

func newServeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), rt.log, rt.cfg)
			if err != nil {
				return err
			}
			defer rt.closeApp(a)
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	return cmd
}
