package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestWithoutIDIsAnswered(t *testing.T) {
	s := NewServer(&stubService{}, nil)

	var r reply
	roundTrip(t, s, `{"jsonrpc":"2.0","method":"ping"}`, &r)

	require.Nil(t, r.Error)
	assert.Equal(t, "null", string(r.ID))
	assert.JSONEq(t, `"pong"`, string(r.Result))
}
