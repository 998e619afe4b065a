// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ritika-Bitcot/agent-poc/internal/secrets"
)

// defaultAddress is where client commands look for a running server.
const defaultAddress = "127.0.0.1:8000"

// deps are the process-level collaborators commands use. Tests replace them.
type deps struct {
	httpClient *http.Client
	secrets    func() secrets.Store
	stdin      io.Reader
}

func defaultDeps() deps {
	return deps{
		// Chat turns may run several model rounds.
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		secrets:    func() secrets.Store { return secrets.NewKeyringStore(nil) },
		stdin:      os.Stdin,
	}
}

// NewRootCmd creates the root agentpoc command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDeps())
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "agentpoc",
		Short:         "agentpoc - conversational agent over account, facility and notes data",
		Long:          "agentpoc serves a tool-calling agent over HTTP and provides clients for its API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("address", defaultAddress, "host:port of a running agentpoc server")

	root.AddCommand(
		newServeCmd(d),
		newChatCmd(d),
		newConversationsCmd(d),
		newSecretCmd(d),
		newVersionCmd(),
	)

	return root
}
