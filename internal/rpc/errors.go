package rpc

import (
	"errors"

	"github.com/lbryio/comment-server/internal/model"
)

// JSON-RPC 2.0 error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

var messages = map[int]string{
	CodeParseError:     "Invalid JSON was received by the server.",
	CodeInvalidRequest: "The JSON sent is not a valid Request object.",
	CodeMethodNotFound: "The method does not exist / is not available.",
	CodeInvalidParams:  "Invalid Method Parameter(s).",
	CodeInternal:       "Internal Server Error. Please notify a LBRY Administrator.",
}

// Error is the error member of a response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func newError(code int, data string) *Error {
	return &Error{Code: code, Message: messages[code], Data: data}
}

// toError maps a method error onto a response error. internal reports
// whether the error is unexpected and should be alerted on.
func toError(err error) (rpcErr *Error, internal bool) {
	switch {
	case errors.Is(err, model.ErrInvalidParams),
		errors.Is(err, model.ErrUnauthorized),
		errors.Is(err, model.ErrNotFound):
		return newError(CodeInvalidParams, err.Error()), false
	}
	return newError(CodeInternal, ""), true
}
