// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// apiClient provides HTTP access to a running agentpoc server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// newAPIClient targets the --address flag of cmd.
func newAPIClient(cmd *cobra.Command, hc *http.Client) *apiClient {
	addr, _ := cmd.Flags().GetString("address")
	if addr == "" {
		addr = defaultAddress
	}
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &apiClient{baseURL: strings.TrimRight(base, "/"), http: hc}
}

func (c *apiClient) getJSON(path string, dest any) error {
	return c.do(http.MethodGet, path, nil, dest)
}

func (c *apiClient) postJSON(path string, body, dest any) error {
	return c.do(http.MethodPost, path, body, dest)
}

func (c *apiClient) deleteJSON(path string, dest any) error {
	return c.do(http.MethodDelete, path, nil, dest)
}

// do sends body as JSON and decodes the response into dest. A refused
// connection is reported as CodeCLIServerNotRunning.
func (c *apiClient) do(method, path string, body, dest any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return agenterr.Wrap(err, agenterr.CodeCLIInputInvalid, "encoding request")
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeCLIInputInvalid, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return agenterr.Errorf(agenterr.CodeCLIServerNotRunning,
				"agentpoc server is not running at %s (connection refused)", c.baseURL)
		}
		return agenterr.Wrap(err, agenterr.CodeCLIRequestFailure, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return agenterr.Errorf(agenterr.CodeCLIRequestFailure,
			"server returned status %d: %s", resp.StatusCode, problemDetail(raw))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return agenterr.Wrap(err, agenterr.CodeCLIResponseInvalid, "invalid response")
	}
	return nil
}

// problemDetail extracts the detail of a huma problem document, falling
// back to the raw body.
func problemDetail(raw []byte) string {
	var problem struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &problem); err == nil && problem.Detail != "" {
		return problem.Detail
	}
	return strings.TrimSpace(string(raw))
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
