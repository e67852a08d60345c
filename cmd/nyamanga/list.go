package main

import (
	"fmt"
	"strings"

	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/language"
	"github.com/oukeidos/nyamanga/internal/metadata"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suggested target languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Supported Languages:")
			for _, l := range language.Supported {
				fmt.Fprintf(out, "  %-35s [%s]\n", l.Name+" ("+l.NativeName+")", l.Code)
			}
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known chat and image models",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Models:")
			for _, m := range metadata.Models {
				caps := make([]string, len(m.Caps))
				for i, c := range m.Caps {
					caps[i] = string(c)
				}
				mark := ""
				if m.ID == config.DefaultImageModel || m.ID == config.DefaultChatModel {
					mark = " (default)"
				}
				fmt.Fprintf(out, "  %-28s %-8s %s%s\n", m.ID, m.Provider, strings.Join(caps, ","), mark)
			}
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
