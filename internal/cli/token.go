package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/ottolearn-tutor/internal/services"
)

func newTokenCmd(rt *runtime) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET_KEY, for local API calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := services.NewAuthService(rt.log, rt.cfg.JWTSecretKey, rt.cfg.JWTIssuer)
			if err != nil {
				return err
			}
			tok, err := auth.IssueToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the sub claim (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
