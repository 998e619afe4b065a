// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

func newChatCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the agent",
		Long: "Send a message to a running agentpoc server. Without a message, reads one " +
			"message per line from stdin and keeps the conversation going until EOF or \"exit\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, d, args)
		},
	}

	cmd.Flags().StringP("user", "u", "", "user id (required)")
	cmd.Flags().StringP("account", "a", "", "account id (required)")
	cmd.Flags().StringP("facility", "f", "", "facility id")
	cmd.Flags().String("conversation", "", "continue an existing conversation")
	cmd.Flags().String("title", "", "conversation title")
	cmd.Flags().Bool("json", false, "print the raw response")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runChat(cmd *cobra.Command, d deps, args []string) error {
	client := newAPIClient(cmd, d.httpClient)
	flags := cmd.Flags()
	req := types.AgentRequest{}
	req.UserID, _ = flags.GetString("user")
	req.AccountID, _ = flags.GetString("account")
	req.FacilityID, _ = flags.GetString("facility")
	req.ConversationID, _ = flags.GetString("conversation")
	req.Title, _ = flags.GetString("title")
	raw, _ := flags.GetBool("json")

	out := cmd.OutOrStdout()

	if len(args) > 0 {
		req.Text = strings.Join(args, " ")
		_, err := sendChat(client, req, out, raw)
		return err
	}

	scanner := bufio.NewScanner(d.stdin)
	for {
		if !raw {
			_, _ = fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		req.Text = line
		resp, err := sendChat(client, req, out, raw)
		if err != nil {
			return err
		}
		req.ConversationID = resp.ConversationID
	}
	if err := scanner.Err(); err != nil {
		return agenterr.Wrap(err, agenterr.CodeCLIInputInvalid, "reading stdin")
	}
	return nil
}

func sendChat(client *apiClient, req types.AgentRequest, out io.Writer, raw bool) (*types.AgentResponse, error) {
	var resp types.AgentResponse
	if err := client.postJSON("/chat", req, &resp); err != nil {
		return nil, err
	}

	if raw {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return &resp, enc.Encode(resp)
	}

	_, err := fmt.Fprintf(out, "%s\n\n[card: %s | conversation: %s]\n",
		resp.FinalResponse, resp.CardKey, resp.ConversationID)
	return &resp, err
}
