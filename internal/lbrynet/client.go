// Package lbrynet resolves claims through the ledger daemon's JSON-RPC API.
package lbrynet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/observability"
)

// DefaultTimeout bounds one claim_search call.
const DefaultTimeout = 10 * time.Second

// ErrClaimNotFound is returned when the daemon knows no claim with the id.
var ErrClaimNotFound = errors.New("claim not found")

// Resolver looks up a claim by id.
type Resolver interface {
	ResolveClaim(ctx context.Context, claimID string) (*model.Claim, error)
}

// Client talks to the daemon over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the daemon at url.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type rpcRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type claimSearchResponse struct {
	Result *struct {
		Items []model.Claim `json:"items"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// ResolveClaim runs claim_search for claimID and returns the first item.
func (c *Client) ResolveClaim(ctx context.Context, claimID string) (*model.Claim, error) {
	payload, err := json.Marshal(rpcRequest{
		Method: "claim_search",
		Params: map[string]any{"claim_id": claimID, "no_totals": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal claim_search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	observability.ResolverCalls.WithLabelValues("daemon").Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("claim_search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read claim_search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("claim_search returned status %d", resp.StatusCode)
	}

	var out claimSearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode claim_search response: %w", err)
	}
	if out.Error != nil {
		log.Printf("[Lbrynet] claim_search error: claim_id=%s code=%d msg=%s", claimID, out.Error.Code, out.Error.Message)
		return nil, fmt.Errorf("claim_search: %s", out.Error.Message)
	}
	if out.Result == nil || len(out.Result.Items) == 0 {
		return nil, ErrClaimNotFound
	}
	return &out.Result.Items[0], nil
}
