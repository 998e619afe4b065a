// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

func TestChat_OneShot(t *testing.T) {
	_, ts := newTestApp(t)

	out, err := execute(t, testDeps("", nil), "chat", "--address", ts.URL,
		"-u", "user-1", "-a", "acct-1", "how", "am", "I", "doing?")
	require.NoError(t, err)
	assert.Contains(t, out, testAnswer)
	assert.Contains(t, out, "[card: other | conversation: ")
}

func TestChat_JSONOutput(t *testing.T) {
	_, ts := newTestApp(t)

	out, err := execute(t, testDeps("", nil), "chat", "--address", ts.URL,
		"-u", "user-1", "-a", "acct-1", "--json", "hello")
	require.NoError(t, err)

	var resp types.AgentResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, testAnswer, resp.FinalResponse)
	assert.Equal(t, types.CardOther, resp.CardKey)
}

func TestChat_InteractiveCarriesConversation(t *testing.T) {
	app, ts := newTestApp(t)

	stdin := "first question\n\nsecond question\nexit\nnever sent\n"
	out, err := execute(t, testDeps(stdin, nil), "chat", "--address", ts.URL, "-u", "user-1", "-a", "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, testAnswer))

	convs, err := app.Store.List(context.Background(), store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.EqualValues(t, 4, convs[0].MessageCount)
}

func TestChat_SendsRequestFields(t *testing.T) {
	var got types.AgentRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(types.NewOtherResponse("conv-9", "done with that"))
	}))
	defer ts.Close()

	out, err := execute(t, testDeps("", nil), "chat", "--address", ts.URL,
		"-u", "user-1", "-a", "acct-1", "-f", "fac-1", "--conversation", "conv-9", "--title", "Weekly", "notes please")
	require.NoError(t, err)
	assert.Contains(t, out, "conversation: conv-9")
	assert.Equal(t, types.AgentRequest{
		Text: "notes please", UserID: "user-1", Title: "Weekly",
		AccountID: "acct-1", FacilityID: "fac-1", ConversationID: "conv-9",
	}, got)
}

func TestChat_RequiresUserAndAccount(t *testing.T) {
	_, err := execute(t, testDeps("", nil), "chat", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestChat_ServerNotRunning(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = execute(t, testDeps("", nil), "chat", "--address", addr, "-u", "u", "-a", "a", "hi")
	require.Error(t, err)
	assert.True(t, agenterr.HasCode(err, agenterr.CodeCLIServerNotRunning))
}

func TestAPIClient_ProblemDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"detail":"Conversation not found"}`))
	}))
	defer ts.Close()

	_, err := execute(t, testDeps("", nil), "conversations", "delete", "missing", "--address", ts.URL)
	require.Error(t, err)
	assert.True(t, agenterr.HasCode(err, agenterr.CodeCLIRequestFailure))
	assert.Contains(t, err.Error(), "status 404: Conversation not found")
}
