// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ritika-Bitcot/agent-poc/internal/server"
	"github.com/Ritika-Bitcot/agent-poc/internal/store"
	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
	"github.com/Ritika-Bitcot/agent-poc/pkg/types"
)

func main() {
	spec, err := generateSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec builds a server with every route registered and extracts
// the OpenAPI document huma derives from the handler types.
func generateSpec() ([]byte, error) {
	svc, err := server.NewServices(stubChat{}, store.NewMemoryConversationStore())
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating services")
	}

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, svc)
	if err != nil {
		return nil, agenterr.Wrap(err, agenterr.CodeCLISetupFailure, "creating server")
	}

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

// stubChat is never invoked during spec generation.
type stubChat struct{}

func (stubChat) Run(_ context.Context, req types.AgentRequest) *types.AgentResponse {
	return types.NewOtherResponse(req.ConversationID, "")
}
