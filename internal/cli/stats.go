package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/yungbote/ottolearn-tutor/internal/app"
)

func newStatsCmd(rt *runtime) *cobra.Command {
	var courseID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a course's chunk count and assistant outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewCore(cmd.Context(), rt.log, rt.cfg)
			if err != nil {
				return err
			}
			defer rt.closeApp(a)

			st, err := a.Services.Catalog.CourseStats(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, st)
		},
	}
	cmd.Flags().StringVar(&courseID, "course", "", "course id (required)")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func newUsageCmd(rt *runtime) *cobra.Command {
	var (
		userID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "List a learner's most recent assistant requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewCore(cmd.Context(), rt.log, rt.cfg)
			if err != nil {
				return err
			}
			defer rt.closeApp(a)

			recs, err := a.Services.Catalog.RecentUsage(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd, recs)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "learner id (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum events to list")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
