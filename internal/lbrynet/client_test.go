package lbrynet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/model"
)

func daemon(t *testing.T, handler func(params map[string]any) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claim_search", req.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(handler(req.Params)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveClaim(t *testing.T) {
	srv := daemon(t, func(params map[string]any) string {
		assert.Equal(t, "abc", params["claim_id"])
		assert.Equal(t, true, params["no_totals"])
		return `{"result":{"items":[{"claim_id":"abc","name":"@chan","value":{"public_key":"3056"},
			"signing_channel":{"claim_id":"def","name":"@owner","value":{"public_key":"beef"}}}]}}`
	})

	claim, err := NewClient(srv.URL).ResolveClaim(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", claim.ClaimID)
	assert.Equal(t, "3056", claim.Value.PublicKey)
	require.NotNil(t, claim.SigningChannel)
	assert.Equal(t, "beef", claim.SigningChannel.Value.PublicKey)
}

func TestResolveClaim_NotFound(t *testing.T) {
	srv := daemon(t, func(map[string]any) string { return `{"result":{"items":[]}}` })

	_, err := NewClient(srv.URL).ResolveClaim(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestResolveClaim_DaemonErrors(t *testing.T) {
	srv := daemon(t, func(map[string]any) string { return `{"error":{"code":-32500,"message":"wallet locked"}}` })
	_, err := NewClient(srv.URL).ResolveClaim(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClaimNotFound)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	_, err = NewClient(down.URL).ResolveClaim(context.Background(), "abc")
	assert.Error(t, err)
}

type memCache struct {
	mu     sync.Mutex
	claims map[string]*model.Claim
}

func (m *memCache) GetClaim(_ context.Context, id string) (*model.Claim, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	return c, ok, nil
}

func (m *memCache) SetClaim(_ context.Context, c *model.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[c.ClaimID] = c
	return nil
}

func TestCachedResolver_HitAvoidsDaemon(t *testing.T) {
	calls := 0
	srv := daemon(t, func(map[string]any) string {
		calls++
		return `{"result":{"items":[{"claim_id":"abc","name":"@chan","value":{"public_key":"01"}}]}}`
	})

	r := NewCachedResolver(NewClient(srv.URL), &memCache{claims: map[string]*model.Claim{}})
	for i := 0; i < 3; i++ {
		claim, err := r.ResolveClaim(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, "@chan", claim.Name)
	}
	assert.Equal(t, 1, calls)
}
