// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ritika-Bitcot/agent-poc/internal/secrets"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

func newSecretCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets stored in the OS keyring",
		Long: "Store, list and delete secrets in the operating system keyring. Reference a stored " +
			"secret from the config file as keyring://<service>/<name>.",
	}
	cmd.PersistentFlags().String("service", secrets.DefaultService, "keyring service name")

	cmd.AddCommand(
		newSecretSetCmd(d),
		newSecretListCmd(d),
		newSecretDeleteCmd(d),
	)
	return cmd
}

func newSecretSetCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> [value]",
		Short: "Store a secret; the value is read from stdin when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _ := cmd.Flags().GetString("service")
			name := args[0]

			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				scanner := bufio.NewScanner(d.stdin)
				if scanner.Scan() {
					value = scanner.Text()
				}
				if err := scanner.Err(); err != nil {
					return agenterr.Wrap(err, agenterr.CodeCLIInputInvalid, "reading secret from stdin")
				}
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return agenterr.Errorf(agenterr.CodeCLIInputInvalid, "secret %q: value must not be empty", name)
			}

			if err := d.secrets().Store(service, name, value); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Stored secret %s; reference it as %s\n", name, secrets.URI(service, name))
			return err
		},
	}
}

func newSecretListCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored secret names",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _ := cmd.Flags().GetString("service")
			keys, err := d.secrets().List(service)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				_, _ = fmt.Fprintln(out, "No secrets stored.")
				return nil
			}
			for _, k := range keys {
				_, _ = fmt.Fprintln(out, k)
			}
			return nil
		},
	}
}

func newSecretDeleteCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _ := cmd.Flags().GetString("service")
			name := args[0]
			if err := d.secrets().Delete(service, name); err != nil {
				if agenterr.IsNotFound(err) {
					return agenterr.Errorf(agenterr.CodeSecretEntryNotFound, "secret %q not found", name)
				}
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
			return err
		},
	}
}
