package main

import (
	"fmt"

	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/version"
	"github.com/spf13/cobra"
)

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show a short description and link",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: manga panel localization and typesetting\n", version.Short())
			fmt.Fprintf(out, "Default API: %s (model %s)\n", config.DefaultBaseURL, config.DefaultImageModel)
			fmt.Fprintln(out, "https://github.com/oukeidos/nyamanga")
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
