package main

import (
	"fmt"
	"strings"

	"github.com/oukeidos/nyamanga/internal/auth"
	"github.com/spf13/cobra"
)

type envOptions struct {
	account string
}

func (o *envOptions) resolve() (auth.Account, error) {
	switch strings.ToLower(strings.TrimSpace(o.account)) {
	case "", "api":
		return auth.AccountAPI, nil
	case "gemini":
		return auth.AccountGemini, nil
	}
	return "", fmt.Errorf("invalid account %q. Must be 'api' or 'gemini'", o.account)
}

func newEnvCmd() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage API keys in OS Keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, &opts)
		},
	}

	cmd.SetUsageTemplate(envUsageTemplate)
	cmd.PersistentFlags().StringVar(&opts.account, "account", "api", "Key to manage (api or gemini)")

	cmd.AddCommand(
		newEnvSetupCmd(&opts),
		newEnvDeleteCmd(&opts),
		newEnvStatusCmd(&opts),
	)
	return cmd
}

func newEnvSetupCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Save API key to keychain (prompt only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvSetup(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvDeleteCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete key from keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvDelete(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvStatusCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show key status (default if no action given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runEnvSetup(cmd *cobra.Command, opts *envOptions) error {
	account, err := opts.resolve()
	if err != nil {
		return err
	}
	key, err := promptForKey(cmd.ErrOrStderr(), account.Label()+": ")
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := saveKey(account, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to keychain.\n", account.Label())
	return nil
}

func runEnvDelete(cmd *cobra.Command, opts *envOptions) error {
	account, err := opts.resolve()
	if err != nil {
		return err
	}
	if err := deleteKey(account); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from keychain.\n", account.Label())
	return nil
}

func runEnvStatus(cmd *cobra.Command, opts *envOptions) error {
	account, err := opts.resolve()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, name := getEnvKey(account); name != "" {
		fmt.Fprintf(out, "%s: Found (source=%s %s)\n", account.Label(), auth.SourceEnv, name)
		return nil
	}
	if hasKey(account) {
		fmt.Fprintf(out, "%s: Found (source=%s; used with --allow-keychain)\n", account.Label(), auth.SourceKeychain)
		return nil
	}
	fmt.Fprintf(out, "%s: Not Found (env not set, keychain empty)\n", account.Label())
	return nil
}
