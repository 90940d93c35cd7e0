package main

import (
	"github.com/spboyer/hirebench/internal/logging"
	"github.com/spboyer/hirebench/internal/projectconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// rootOptions holds the persistent flags and the logger built from them.
type rootOptions struct {
	debug      bool
	jsonLogs   bool
	configPath string

	logger *zap.Logger
}

// loadConfig reads --config when given, otherwise searches upwards from dir.
func (o *rootOptions) loadConfig(dir string) (*projectconfig.ProjectConfig, error) {
	if o.configPath != "" {
		return projectconfig.LoadFile(o.configPath)
	}
	return projectconfig.Load(dir)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hirebench",
		Short: "hirebench - grader for DevOps interview submissions",
		Long: `hirebench grades a DevOps interview submission.

It inspects the terraform/, k8s/, network/, edge/, cicd/ and debug/ folders of
a submission with static checks, scores five modules out of 100 and turns the
total into a hiring recommendation.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json", false, "Emit logs as JSON")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Project config file (default: .hirebench.yaml found from the submission upwards)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger, err := logging.New(opts.jsonLogs, opts.debug)
		if err != nil {
			return err
		}
		opts.logger = logger
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		// stderr sync fails on some terminals
		_ = opts.logger.Sync()
	}

	cmd.AddCommand(newEvaluateCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newModulesCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
