package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/lbryio/comment-server/internal/httputil"
	"github.com/lbryio/comment-server/internal/rpc"
)

// MaxBodyBytes bounds a JSON-RPC request body, batches included.
const MaxBodyBytes = 4 << 20

type RPCHandler struct {
	server  *rpc.Server
	started time.Time
}

func NewRPCHandler(server *rpc.Server) *RPCHandler {
	return &RPCHandler{server: server, started: time.Now()}
}

// Serve handles POST /api
func (h *RPCHandler) Serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, httputil.ErrCodeRequestTooLarge, "Request body too large")
			return
		}
		log.Printf("[RPCHandler] Read body FAILED: err=%v", err)
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.server.Handle(r.Context(), body))
}

// StatusResponse is the body of GET / and GET /api.
type StatusResponse struct {
	Text      string `json:"text"`
	IsRunning bool   `json:"is_running"`
	Uptime    int64  `json:"uptime"`
}

// Status handles GET / and GET /api
func (h *RPCHandler) Status(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Text:      "OK",
		IsRunning: true,
		Uptime:    int64(time.Since(h.started).Seconds()),
	})
}
