package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/oukeidos/nyamanga/internal/cleanup"
	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errNoCommand = errors.New("a command is required")

type globalOptions struct {
	debug         bool
	logFile       string
	envFile       string
	allowKeychain bool
	yes           bool
	baseURL       string
	chatModel     string
	imageModel    string
}

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "nyamanga",
		Short: "Manga panel localization with an OpenAI-compatible image API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			if hasAnyFlagSet(cmd) {
				return fmt.Errorf("%w: flags only apply to a command such as \"nyamanga localize\"", errNoCommand)
			}
			return errNoCommand
		},
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	pf := cmd.PersistentFlags()
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&opts.logFile, "log-file", "", "Path to save machine-readable JSONL logs")
	pf.StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file (default: ./.env if present)")
	pf.BoolVar(&opts.allowKeychain, "allow-keychain", false, "Fall back to the OS keychain when no API key is set in the environment")
	pf.BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output files without asking")
	pf.StringVar(&opts.baseURL, "base-url", "", "API base URL (overrides "+config.EnvBaseURL+")")
	pf.StringVar(&opts.chatModel, "chat-model", "", "Model used for dialogue rewriting")
	pf.StringVar(&opts.imageModel, "image-model", "", "Model used for image edits and generation")

	cmd.AddCommand(
		newRewriteCmd(opts),
		newEmbedCmd(opts),
		newLocalizeCmd(opts),
		newGenerateCmd(opts),
		newBatchCmd(opts),
		newEnvCmd(),
		newListCmd(),
		newModelsCmd(),
		newAboutCmd(),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.Short = "Generate shell completion scripts"
			sub.SetUsageTemplate(subcommandUsageTemplate)
			break
		}
	}

	return cmd
}

func hasAnyFlagSet(cmd *cobra.Command) bool {
	changed := false
	cmd.Flags().Visit(func(_ *pflag.Flag) {
		changed = true
	})
	return changed
}
