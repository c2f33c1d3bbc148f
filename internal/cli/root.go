package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/ottolearn-tutor/internal/app"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

// runtime carries the state resolved by the root command's pre-run hook.
type runtime struct {
	cfgFile string
	cfg     app.Config
	log     *logger.Logger
}

func NewRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:   "tutorctl",
		Short: "Course tutor: chunk ingestion and grounded answers",
		Long: `tutorctl manages course chunk sets and asks the course assistant from the shell.

Examples:
  tutorctl migrate
  tutorctl ingest --course go-101 --file chunks.yaml
  tutorctl ask --course go-101 --user learner-1 "How do I close a channel?"
  tutorctl serve --port 8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.log != nil {
				rt.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&rt.cfgFile, "config", "", "config file (default $TUTOR_CONFIG_FILE)")

	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newIngestCmd(rt),
		newAskCmd(rt),
		newStatsCmd(rt),
		newUsageCmd(rt),
		newTokenCmd(rt),
	)
	return root
}

func (rt *runtime) load(cmd *cobra.Command) error {
	cfgFile := rt.cfgFile
	if cfgFile == "" {
		cfgFile = os.Getenv("TUTOR_CONFIG_FILE")
	}
	v, err := app.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("port"); f != nil {
		if err := v.BindPFlag("PORT", f); err != nil {
			return err
		}
	}
	if rt.cfg, err = app.LoadConfig(v); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if rt.log, err = logger.New(rt.cfg.LogMode); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

// closeApp gives the usage logger time to drain before the process exits.
func (rt *runtime) closeApp(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		rt.log.Warn("Shutdown incomplete", "error", err)
	}
}

// Execute runs the root command with a context canceled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
