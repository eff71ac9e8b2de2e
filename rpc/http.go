// Package rpc exposes the node over JSON-RPC. A single POST endpoint carries
// the method dispatch; health and Prometheus metrics ride alongside on the
// same router. Administrative methods require the bearer token.
package rpc

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grumblechain/core"
	"grumblechain/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

type Server struct {
	node      *core.Node
	authToken string
	metrics   *metrics.Metrics
}

// NewServer wraps the node for JSON-RPC access. An empty token disables every
// administrative method.
func NewServer(node *core.Node, authToken string) *Server {
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(authToken),
		metrics:   metrics.Shared(),
	}
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start serves the router until the listener fails.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) checkAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "administrative methods disabled"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || header == token {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "failed to read request body", err.Error())
		return
	}
	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
		return
	}
	if handler.admin {
		if authErr := s.checkAuth(r); authErr != nil {
			s.metrics.RequestsTotal.WithLabelValues(req.Method, "unauthorized").Inc()
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	start := time.Now()
	handler.fn(w, req)
	s.metrics.RequestSeconds.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
}

type method struct {
	admin bool
	fn    func(http.ResponseWriter, *RPCRequest)
}

func (s *Server) ok(w http.ResponseWriter, req *RPCRequest, result interface{}) {
	s.metrics.RequestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, result)
}

// fail maps node errors onto JSON-RPC errors. Owner gating surfaces as
// unauthorized; everything else is a server error carrying the sentinel text.
func (s *Server) fail(w http.ResponseWriter, req *RPCRequest, err error) {
	s.metrics.RequestsTotal.WithLabelValues(req.Method, "error").Inc()
	code := codeServerError
	status := http.StatusOK
	if errors.Is(err, core.ErrNotOwner) {
		code = codeUnauthorized
		status = http.StatusForbidden
	}
	writeError(w, status, req.ID, code, err.Error(), nil)
}

func (s *Server) invalidParams(w http.ResponseWriter, req *RPCRequest, err error) {
	s.metrics.RequestsTotal.WithLabelValues(req.Method, "invalid").Inc()
	writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) == 0 {
		return errors.New("params object required")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(s string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("address %q: %w", s, err)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("address %q: want 20 bytes, got %d", s, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func parseAmount(s string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return amount, nil
}
