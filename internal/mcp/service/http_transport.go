package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fsyj123/knowledge-retrive/internal/platform/timeouts"
)

const (
	// sessionHeader carries the session identifier between client and server.
	// It is exposed through CORS so browser clients can read it.
	sessionHeader = "X-MCP-Session-ID"

	// channelBufferSize buffers request and notification channels so bursts
	// of messages do not immediately block.
	channelBufferSize = 10

	// requestTimeout bounds how long a POST waits for its JSON-RPC response.
	requestTimeout = 30 * time.Second

	// sessionCleanupInterval is how often idle sessions are reaped.
	sessionCleanupInterval = 5 * time.Minute

	// sessionExpiration is how long a session may stay idle before reaping.
	sessionExpiration = 1 * time.Hour
)

// HTTPTransport implements mcp.Transport for HTTP-based MCP communication.
// It serves JSON-RPC messages over POST /messages, streams notifications as
// Server-Sent Events on GET /sse, and answers liveness checks on GET /health.
// Session lifecycle is explicit so long-lived clients cannot leak resources.
type HTTPTransport struct {
	addr         string
	server       *mcp.Server
	sessions     map[string]*httpSession
	sessionsMu   sync.RWMutex
	httpServer   *http.Server
	serverCtx    context.Context
	serverCancel context.CancelFunc
	serverOnceMu sync.Mutex
	serverOnce   map[string]*sync.Once
}

// httpSession maintains state for a single MCP session in memory.
type httpSession struct {
	id        string
	conn      *httpConnection
	createdAt time.Time
	lastUsed  time.Time
}

// httpConnection implements mcp.Connection for HTTP-based communication.
// Request/response flow and notification delivery run on separate channels
// so SSE streaming cannot steal a response a POST handler is waiting on.
type httpConnection struct {
	sessionID   string
	reqChan     chan jsonrpc.Message
	notifyChan  chan jsonrpc.Message
	closed      chan struct{}
	mu          sync.Mutex
	closedFlag  bool
	pendingReqs map[jsonrpc.ID]chan jsonrpc.Message
	pendingMu   sync.Mutex
}

// NewHTTPTransport creates a new HTTP transport that will serve MCP over HTTP.
func NewHTTPTransport(addr string) *HTTPTransport {
	if addr == "" {
		addr = "0.0.0.0:8000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPTransport{
		addr:         addr,
		sessions:     make(map[string]*httpSession),
		serverCtx:    ctx,
		serverCancel: cancel,
		serverOnce:   make(map[string]*sync.Once),
	}
}

// NewHTTPTransportWithServer creates a new HTTP transport with a reference to
// the MCP server that will process its sessions.
func NewHTTPTransportWithServer(addr string, server *mcp.Server) *HTTPTransport {
	transport := NewHTTPTransport(addr)
	transport.server = server
	return transport
}

// Connect implements mcp.Transport.Connect. Each call creates a fresh
// session whose connection waits for HTTP requests.
func (t *HTTPTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	sessionID := generateSessionID()

	conn := &httpConnection{
		sessionID:   sessionID,
		reqChan:     make(chan jsonrpc.Message, channelBufferSize),
		notifyChan:  make(chan jsonrpc.Message, channelBufferSize),
		closed:      make(chan struct{}),
		pendingReqs: make(map[jsonrpc.ID]chan jsonrpc.Message),
	}

	session := &httpSession{
		id:        sessionID,
		conn:      conn,
		createdAt: time.Now(),
		lastUsed:  time.Now(),
	}

	t.sessionsMu.Lock()
	t.sessions[sessionID] = session
	t.sessionsMu.Unlock()

	return conn, nil
}

// Handler returns the HTTP handler serving the transport's routes.
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()

	// POST /messages - JSON-RPC request/response
	mux.HandleFunc("/messages", t.handleMessages)

	// GET /sse - Server-Sent Events stream
	mux.HandleFunc("/sse", t.handleSSE)

	// GET /health - unauthenticated liveness check
	mux.HandleFunc("/health", t.handleHealth)

	return corsMiddleware(mux)
}

// Start starts the HTTP server and blocks until the context ends or the
// server fails.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.serverCtx, t.serverCancel = context.WithCancel(ctx)

	// Reap idle sessions in the background for the server's lifetime.
	go t.cleanupSessions(ctx)

	t.httpServer = &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	log.Printf("Starting MCP HTTP server on %s", t.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := t.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		if t.serverCancel != nil {
			t.serverCancel()
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// corsMiddleware permits cross-origin access from any origin for GET/POST
// and exposes the session header to browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+sessionHeader)
		w.Header().Set("Access-Control-Expose-Headers", sessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleMessages handles POST /messages for JSON-RPC requests. It routes the
// decoded message into the session's connection and, for requests, waits for
// the matching response.
func (t *HTTPTransport) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		http.Error(w, "Invalid JSON-RPC message", http.StatusBadRequest)
		return
	}

	session, created, err := t.sessionFor(r)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	if created {
		w.Header().Set(sessionHeader, session.id)
	}

	t.touchSession(session.id)
	t.ensureServerRunning(session)

	var request *jsonrpc.Request
	switch v := msg.(type) {
	case *jsonrpc.Request:
		// A zero ID marks a JSON-RPC notification.
		if v.ID != (jsonrpc.ID{}) {
			request = v
		}
	case *jsonrpc.Response:
		http.Error(w, "Invalid message type: response", http.StatusBadRequest)
		return
	}

	if request == nil {
		// Notification - deliver and return without a body.
		select {
		case session.conn.reqChan <- msg:
		case <-r.Context().Done():
			http.Error(w, "Request cancelled", http.StatusRequestTimeout)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respChan := make(chan jsonrpc.Message, 1)
	session.conn.pendingMu.Lock()
	session.conn.pendingReqs[request.ID] = respChan
	session.conn.pendingMu.Unlock()
	defer func() {
		session.conn.pendingMu.Lock()
		delete(session.conn.pendingReqs, request.ID)
		session.conn.pendingMu.Unlock()
	}()

	select {
	case session.conn.reqChan <- msg:
	case <-r.Context().Done():
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
		return
	}

	select {
	case resp := <-respChan:
		data, err := jsonrpc.EncodeMessage(resp)
		if err != nil {
			log.Printf("Failed to encode response: %v", err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			log.Printf("Failed to write response: %v", err)
		}
	case <-r.Context().Done():
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
	case <-time.After(requestTimeout):
		http.Error(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// handleSSE handles GET /sse for Server-Sent Events streaming. SSE is a
// notification-only path; request/response pairs stay on POST /messages.
func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, _, err := t.sessionFor(r)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(sessionHeader, session.id)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	t.ensureServerRunning(session)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-session.conn.closed:
			return
		case msg := <-session.conn.notifyChan:
			t.touchSession(session.id)
			data, err := jsonrpc.EncodeMessage(msg)
			if err != nil {
				log.Printf("Failed to marshal SSE message: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// handleHealth handles GET /health for liveness checks.
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// sessionFor finds the request's session by header or query parameter, or
// creates a fresh one. It reports whether a new session was created.
func (t *HTTPTransport) sessionFor(r *http.Request) (*httpSession, bool, error) {
	sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session")
	}

	if sessionID != "" {
		t.sessionsMu.RLock()
		session, exists := t.sessions[sessionID]
		t.sessionsMu.RUnlock()
		if exists && session != nil {
			return session, false, nil
		}
	}

	conn, err := t.Connect(r.Context())
	if err != nil {
		return nil, false, err
	}
	t.sessionsMu.RLock()
	session := t.sessions[conn.SessionID()]
	t.sessionsMu.RUnlock()
	if session == nil {
		return nil, false, fmt.Errorf("session %s missing after connect", conn.SessionID())
	}
	return session, true, nil
}

// touchSession updates a session's liveness timestamp.
func (t *HTTPTransport) touchSession(sessionID string) {
	t.sessionsMu.Lock()
	if session, ok := t.sessions[sessionID]; ok && session != nil {
		session.lastUsed = time.Now()
	}
	t.sessionsMu.Unlock()
}

// cleanupSessions reaps sessions idle past the expiration window so dropped
// clients cannot accumulate connections.
func (t *HTTPTransport) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sessionExpiration)
			t.sessionsMu.Lock()
			for id, session := range t.sessions {
				if session.lastUsed.Before(cutoff) {
					_ = session.conn.Close()
					delete(t.sessions, id)
					t.serverOnceMu.Lock()
					delete(t.serverOnce, id)
					t.serverOnceMu.Unlock()
				}
			}
			t.sessionsMu.Unlock()
		}
	}
}

// ensureServerRunning starts the MCP server session for this connection,
// exactly once per session.
func (t *HTTPTransport) ensureServerRunning(session *httpSession) {
	if t.server == nil {
		return
	}

	t.serverOnceMu.Lock()
	once, exists := t.serverOnce[session.id]
	if !exists {
		once = &sync.Once{}
		t.serverOnce[session.id] = once
	}
	t.serverOnceMu.Unlock()

	once.Do(func() {
		go func() {
			serverSession, err := t.server.Connect(t.serverCtx, &sessionTransport{conn: session.conn}, nil)
			if err != nil {
				log.Printf("Failed to connect MCP server session %s: %v", session.id, err)
				return
			}
			_ = serverSession.Wait()
		}()
	})
}

// Read implements mcp.Connection.Read. It hands the MCP server messages that
// arrived over HTTP.
func (c *httpConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg, ok := <-c.reqChan:
		if !ok {
			return nil, fmt.Errorf("connection closed")
		}
		return msg, nil
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write implements mcp.Connection.Write. Responses with a pending request ID
// are routed to the waiting POST handler; everything else streams out as a
// notification.
func (c *httpConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	if c.isClosed() {
		return fmt.Errorf("connection closed")
	}

	if resp, ok := msg.(*jsonrpc.Response); ok && resp.ID != (jsonrpc.ID{}) {
		c.pendingMu.Lock()
		respChan, exists := c.pendingReqs[resp.ID]
		c.pendingMu.Unlock()

		if exists {
			select {
			case respChan <- msg:
				return nil
			case <-c.closed:
				return fmt.Errorf("connection closed")
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		// No waiter left for this ID; deliver as a notification.
	}

	select {
	case c.notifyChan <- msg:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements mcp.Connection.Close. All waiters are unblocked so a
// dropped session cannot strand goroutines.
func (c *httpConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closedFlag {
		return nil
	}
	c.closedFlag = true
	close(c.closed)

	c.pendingMu.Lock()
	for _, respChan := range c.pendingReqs {
		close(respChan)
	}
	c.pendingReqs = nil
	c.pendingMu.Unlock()

	return nil
}

// SessionID implements mcp.Connection.SessionID.
func (c *httpConnection) SessionID() string {
	return c.sessionID
}

func (c *httpConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closedFlag
}

// sessionTransport returns one pre-existing connection, letting the MCP
// server attach to a session created by the HTTP layer.
type sessionTransport struct {
	conn mcp.Connection
}

// Connect implements mcp.Transport.Connect.
func (st *sessionTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	return st.conn, nil
}

var sessionCounter atomic.Uint64

// generateSessionID produces a unique session identifier. Random bytes plus
// a process-local counter keep IDs unique even if the random source fails.
func generateSessionID() string {
	b := make([]byte, 8)
	counter := sessionCounter.Add(1)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("session_%d_%d", time.Now().UnixNano(), counter)
	}
	return fmt.Sprintf("session_%s_%d", hex.EncodeToString(b), counter)
}
