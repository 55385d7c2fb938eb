// Package rpc dispatches JSON-RPC 2.0 calls to the comment service.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lbryio/comment-server/internal/notify"
	"github.com/lbryio/comment-server/internal/observability"
)

// Request is one JSON-RPC call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC reply. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Server struct {
	comments CommentService
	alerter  notify.Alerter
	registry map[string]method
}

func NewServer(comments CommentService, alerter notify.Alerter) *Server {
	if alerter == nil {
		alerter = notify.NopAlerter{}
	}
	s := &Server{comments: comments, alerter: alerter}
	s.registry = s.methods()
	return s
}

// Handle answers a request body: a single call yields one Response, a batch
// yields the responses in call order.
func (s *Server) Handle(ctx context.Context, body []byte) any {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return errorResponse(nil, newError(CodeInvalidRequest, "empty body"))
	}

	if body[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(body, &batch); err != nil {
			return errorResponse(nil, newError(CodeParseError, err.Error()))
		}
		if len(batch) == 0 {
			return errorResponse(nil, newError(CodeInvalidRequest, "empty batch"))
		}
		responses := make([]Response, len(batch))
		for i, raw := range batch {
			responses[i] = s.call(ctx, raw)
		}
		return responses
	}

	if !json.Valid(body) {
		return errorResponse(nil, newError(CodeParseError, ""))
	}
	return s.call(ctx, body)
}

func errorResponse(id json.RawMessage, err *Error) Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return Response{JSONRPC: "2.0", ID: id, Error: err}
}

// call answers one request. Requests without an id are answered too, with
// "id": null; notifications get no special treatment.
func (s *Server) call(ctx context.Context, raw json.RawMessage) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil || req.Method == "" {
		return errorResponse(req.ID, newError(CodeInvalidRequest, ""))
	}

	m, ok := s.registry[req.Method]
	if !ok {
		return errorResponse(req.ID, newError(CodeMethodNotFound, req.Method))
	}

	params, err := parseParams(req.Params)
	if err != nil {
		return errorResponse(req.ID, newError(CodeInvalidParams, err.Error()))
	}

	start := time.Now()
	result, err := s.invoke(ctx, m, params)
	observability.ObserveRPC(req.Method, start, err)

	if err != nil {
		rpcErr, internal := toError(err)
		if internal {
			log.Printf("[RPC] %s FAILED: err=%v", req.Method, err)
			s.alerter.Alert(req.Method, err, params)
		} else {
			log.Printf("[RPC] %s rejected: err=%v", req.Method, err)
		}
		return errorResponse(req.ID, rpcErr)
	}

	log.Printf("[RPC] %s OK: duration=%v", req.Method, time.Since(start))
	id := req.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

// invoke runs m, turning a panic into an internal error.
func (s *Server) invoke(ctx context.Context, m method, params map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m(ctx, params)
}
