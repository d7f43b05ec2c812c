// ABOUTME: HTTP API handlers for tool invocation, health, schema, and tokens.
// ABOUTME: Every per-request error is converted to a JSON error response.

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/notsedano/f1-mcp-server/internal/dispatch"
)

// ToolCallRequest is the JSON request body for POST /tool.
type ToolCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCallResponse is the JSON response for a successful POST /tool.
type ToolCallResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// TokenResponse is the JSON response for GET /auth/token.
type TokenResponse struct {
	Token string `json:"token"`
}

// handleToolCall handles POST /tool requests.
// The request is dispatched through the engine; any dispatch error is
// returned as a generic failure with the underlying message attached.
func (g *Gateway) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseToolCallRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := g.engine.Dispatch(r.Context(), *req)
	if err != nil {
		g.sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToolCallResponse{Status: "success", Data: result})
}

// parseToolCallRequest parses and validates a ToolCallRequest from the given reader.
// Returns an error if the JSON is invalid or the name field is missing.
func parseToolCallRequest(r io.Reader) (*dispatch.Request, error) {
	var req ToolCallRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}

	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	return &dispatch.Request{Name: req.Name, Arguments: req.Arguments}, nil
}

// handleHealth handles GET /health requests, reflecting the metrics
// aggregator's snapshot. Uptime is recomputed on every read.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.metrics.Snapshot())
}

// handleSchema handles GET /schema requests with a static description of
// the /tool endpoint. Informational only; requests are not validated
// against it at runtime.
func (g *Gateway) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.schemaDocument())
}

// schemaDocument builds the OpenAPI description of the /tool endpoint,
// listing the registered tool names as the accepted values.
func (g *Gateway) schemaDocument() map[string]any {
	return map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       "F1 Gateway Tools",
			"version":     "2.0.0",
			"description": "Formula One data tools behind a uniform dispatch endpoint",
		},
		"paths": map[string]any{
			"/tool": map[string]any{
				"post": map[string]any{
					"summary": "Invoke a tool by name",
					"requestBody": map[string]any{
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"name": map[string]any{
											"type": "string",
											"enum": g.registry.Names(),
										},
										"arguments": map[string]any{"type": "object"},
									},
									"required": []string{"name", "arguments"},
								},
							},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Tool result",
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{"type": "object"},
								},
							},
						},
					},
				},
			},
		},
	}
}

// handleAuthToken handles GET /auth/token requests, issuing a token for
// the fixed default identity.
func (g *Gateway) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if g.issuer == nil {
		g.sendJSONError(w, http.StatusServiceUnavailable, "token issuance disabled")
		return
	}

	token, err := g.issuer.Issue(defaultStreamUser)
	if err != nil {
		g.logger.Error("failed to issue token", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{Token: token})
}

// handleAudit handles GET /api/audit requests, listing recent dispatch
// records newest first. Supports ?limit=N (default 50, max 500).
func (g *Gateway) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			g.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > 500 {
			limit = 500
		}
	}

	records, err := g.store.RecentDispatches(r.Context(), limit)
	if err != nil {
		g.logger.Error("failed to list dispatch records", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"dispatches": records})
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
