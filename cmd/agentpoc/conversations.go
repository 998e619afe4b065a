// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ritika-Bitcot/agent-poc/internal/store"
)

func newConversationsCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Inspect and maintain stored conversations",
	}

	cmd.AddCommand(
		newConversationsListCmd(d),
		newConversationsShowCmd(d),
		newConversationsDeleteCmd(d),
		newConversationsCleanupCmd(d),
	)
	return cmd
}

func newConversationsListCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversation ids and store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if user, _ := cmd.Flags().GetString("user"); user != "" {
				q.Set("user_id", user)
			}
			if all, _ := cmd.Flags().GetBool("all"); all {
				q.Set("include_inactive", "true")
			}
			path := "/conversations"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var body struct {
				Conversations []string    `json:"conversations"`
				Stats         store.Stats `json:"stats"`
			}
			if err := newAPIClient(cmd, d.httpClient).getJSON(path, &body); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(body.Conversations) == 0 {
				_, _ = fmt.Fprintln(out, "No conversations.")
			}
			for _, id := range body.Conversations {
				_, _ = fmt.Fprintln(out, id)
			}
			_, err := fmt.Fprintf(out, "\n%d conversations (%d active), %d messages\n",
				body.Stats.Count, body.Stats.ActiveCount, body.Stats.MessageCount)
			return err
		},
	}
	cmd.Flags().String("user", "", "only conversations owned by this user")
	cmd.Flags().Bool("all", false, "include expired conversations")
	return cmd
}

func newConversationsShowCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a conversation and its recent messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(cmd, d.httpClient)
			id := url.PathEscape(args[0])

			var conv struct {
				Conversation store.Conversation `json:"conversation"`
			}
			if err := client.getJSON("/conversations/"+id, &conv); err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			var history struct {
				Messages []store.Message `json:"messages"`
			}
			if err := client.getJSON("/conversations/"+id+"/messages?limit="+strconv.Itoa(limit), &history); err != nil {
				return err
			}

			if raw, _ := cmd.Flags().GetBool("json"); raw {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"conversation": conv.Conversation, "messages": history.Messages})
			}

			c := conv.Conversation
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "id:\t%s\n", c.ID)
			_, _ = fmt.Fprintf(tw, "user:\t%s\n", c.UserID)
			_, _ = fmt.Fprintf(tw, "created:\t%s\n", c.CreatedAt.Format(time.RFC3339))
			_, _ = fmt.Fprintf(tw, "last accessed:\t%s\n", c.LastAccessed.Format(time.RFC3339))
			_, _ = fmt.Fprintf(tw, "messages:\t%d\n", c.MessageCount)
			_, _ = fmt.Fprintf(tw, "active:\t%t\n", c.IsActive)
			_, _ = fmt.Fprintln(tw)
			for _, m := range history.Messages {
				_, _ = fmt.Fprintf(tw, "[%s]\t%s\n", m.Role, m.Content)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "number of recent messages to show")
	cmd.Flags().Bool("json", false, "print raw JSON")
	return cmd
}

func newConversationsDeleteCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body struct {
				Message string `json:"message"`
			}
			if err := newAPIClient(cmd, d.httpClient).deleteJSON("/conversations/"+url.PathEscape(args[0]), &body); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), body.Message)
			return err
		},
	}
}

func newConversationsCleanupCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Deactivate conversations idle longer than --max-age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/cleanup"
			if maxAge, _ := cmd.Flags().GetDuration("max-age"); maxAge > 0 {
				path += "?max_age=" + url.QueryEscape(maxAge.String())
			}
			var body struct {
				Message string `json:"message"`
			}
			if err := newAPIClient(cmd, d.httpClient).postJSON(path, nil, &body); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), body.Message)
			return err
		},
	}
	cmd.Flags().Duration("max-age", 0, "idle age to expire; defaults to the server's retention max age")
	return cmd
}
