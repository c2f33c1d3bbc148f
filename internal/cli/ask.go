package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/ottolearn-tutor/internal/app"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
)

func newAskCmd(rt *runtime) *cobra.Command {
	var req tutor.AskRequest
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the course assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Question = strings.Join(args, " ")
			a, err := app.NewCore(cmd.Context(), rt.log, rt.cfg)
			if err != nil {
				return err
			}
			defer rt.closeApp(a)

			res, err := a.Services.Assistant.Ask(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.CourseID, "course", "", "course id (required)")
	cmd.Flags().StringVar(&req.UserID, "user", "", "learner id recorded in the usage log (required)")
	cmd.Flags().StringVar(&req.CourseTitle, "title", "", "course title shown to the model")
	cmd.Flags().StringVar(&req.PersonaPrompt, "persona", "", "tutor persona prompt")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
