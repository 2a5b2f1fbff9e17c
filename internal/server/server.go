// ABOUTME: Websocket control server for the music engine
// ABOUTME: Manages control connections, the handshake and the engine tick loop
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/imuse-go/internal/discovery"
	"github.com/Resonate-Protocol/imuse-go/internal/protocol"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool

	// CommandRate caps commands per second from one client; zero disables
	// the limit. CommandBurst defaults to CommandRate rounded up.
	CommandRate  float64
	CommandBurst int
}

// Server exposes one engine to websocket control clients
type Server struct {
	config   Config
	serverID string
	engine   *imuse.Engine

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is a connected control client
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	// Output channel for messages
	sendChan chan protocol.Message

	limiter *rate.Limiter
}

// New creates a server driving engine
func New(config Config, engine *imuse.Engine) *Server {
	if config.Name == "" {
		config.Name = "imuse-go"
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		engine:   engine,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Control clients are local tools; browsers get logged
				if origin := r.Header.Get("Origin"); origin != "" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(discovery.ControlPath, s.handleWebSocket)
	return s
}

// ID returns the server's session identifier
func (s *Server) ID() string {
	return s.serverID
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ClientCount returns the number of connected control clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Start runs the engine tick loop and the HTTP server until Stop
func (s *Server) Start() error {
	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.Run(ctx)
	}()

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, discovery.ControlPath)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	// Reject new connections
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	s.closeClients()

	cancel()
	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// closeClients drops every hijacked websocket, which http.Server.Shutdown
// does not track
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.Conn.Close()
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	if s.config.Debug {
		log.Printf("[DEBUG] New connection, waiting for handshake")
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	if msg.Type != protocol.TypeClientHello {
		log.Printf("Expected %s, got %s", protocol.TypeClientHello, msg.Type)
		writeError(conn, msg.ID, protocol.ErrorBadRequest, "expected "+protocol.TypeClientHello)
		return
	}

	var hello protocol.ClientHello
	if err := decodePayload(msg.Payload, &hello); err != nil {
		log.Printf("Error unmarshaling client hello: %v", err)
		writeError(conn, msg.ID, protocol.ErrorBadRequest, err.Error())
		return
	}
	if hello.ClientID == "" || hello.Name == "" {
		log.Printf("Client hello missing ClientID or Name")
		writeError(conn, msg.ID, protocol.ErrorBadRequest, "client_id and name are required")
		return
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan protocol.Message, 32),
		limiter:  s.newLimiter(),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)
		writeError(conn, msg.ID, protocol.ErrorDuplicateClient, "Client ID already connected")
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	writerDone := make(chan struct{})
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		<-writerDone
		log.Printf("Client disconnected: %s", client.Name)
	}()

	cfg := s.engine.Config()
	s.send(client, protocol.Message{
		Type: protocol.TypeServerHello,
		ID:   msg.ID,
		Payload: protocol.ServerHello{
			ServerID:    s.serverID,
			Name:        s.config.Name,
			Version:     protocol.Version,
			CallbackFPS: cfg.CallbackFPS,
			MaxTracks:   cfg.MaxTracks,
		},
	})

	go func() {
		defer close(writerDone)
		s.clientWriter(client)
	}()

	for {
		var cmd protocol.Message
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if s.config.Debug {
			log.Printf("[DEBUG] %s: %s (id %s)", client.Name, cmd.Type, cmd.ID)
		}
		if client.limiter != nil && !client.limiter.Allow() {
			s.send(client, errorMessage(cmd.ID, protocol.ErrorRateLimited, "too many commands"))
			continue
		}
		s.send(client, s.handleCommand(cmd))
	}
}

// clientWriter sends queued messages and keepalive pings
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteJSON(msg); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// newLimiter returns the per-client command limiter, or nil when unlimited
func (s *Server) newLimiter() *rate.Limiter {
	if s.config.CommandRate <= 0 {
		return nil
	}
	burst := s.config.CommandBurst
	if burst <= 0 {
		burst = int(math.Ceil(s.config.CommandRate))
	}
	return rate.NewLimiter(rate.Limit(s.config.CommandRate), burst)
}

// send queues a message for a client, dropping it if the buffer is full
func (s *Server) send(client *Client, msg protocol.Message) {
	select {
	case client.sendChan <- msg:
	default:
		log.Printf("Client %s send buffer full, dropping %s", client.Name, msg.Type)
	}
}

// writeError writes an error directly, for failures before the writer runs
func writeError(conn *websocket.Conn, id, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteJSON(errorMessage(id, code, message))
}

func errorMessage(id, code, message string) protocol.Message {
	return protocol.Message{
		Type:    protocol.TypeServerError,
		ID:      id,
		Payload: protocol.ServerError{Error: code, Message: message},
	}
}

// decodePayload converts a generic JSON payload into v
func decodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
