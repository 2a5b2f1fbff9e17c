// ABOUTME: WebSocket client for the imuse control protocol
// ABOUTME: Handles connection, handshake and request/reply matching
package client

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/Resonate-Protocol/imuse-go/internal/discovery"
	"github.com/Resonate-Protocol/imuse-go/internal/protocol"
	"github.com/Resonate-Protocol/imuse-go/internal/version"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	Path       string        // Defaults to /imuse
	ClientID   string        // Defaults to a random UUID
	Name       string        // Defaults to imuse-ctl
	Timeout    time.Duration // Per request, defaults to 5s
}

// ServerError is a command rejected by the server
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// Client is a synchronous control client. Calls are serialized.
type Client struct {
	config Config

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	hello     protocol.ServerHello
}

// NewClient creates a new control client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = discovery.ControlPath
	}
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.Name == "" {
		config.Name = "imuse-ctl"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &Client{config: config}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	log.Printf("Connecting to %s", u.String())

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = c.config.Timeout
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	var hello protocol.ServerHello
	err = c.Call(protocol.TypeClientHello, protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  protocol.Version,
		DeviceInfo: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	}, &hello)
	if err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	c.mu.Lock()
	c.hello = hello
	c.mu.Unlock()

	log.Printf("Handshake complete with %s (ID: %s)", hello.Name, hello.ServerID)
	return nil
}

// Hello returns the server's handshake reply
func (c *Client) Hello() protocol.ServerHello {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hello
}

// Call sends one command and waits for its reply. A server/error reply is
// returned as *ServerError. result may be nil.
func (c *Client) Call(msgType string, payload, result interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	id := uuid.New().String()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.Timeout))
	if err := c.conn.WriteJSON(protocol.Message{Type: msgType, ID: id, Payload: payload}); err != nil {
		return fmt.Errorf("send %s: %w", msgType, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(c.config.Timeout))
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		var reply protocol.Message
		if err := c.conn.ReadJSON(&reply); err != nil {
			return fmt.Errorf("read reply to %s: %w", msgType, err)
		}
		if reply.ID != id {
			log.Printf("Ignoring %s reply for %q", reply.Type, reply.ID)
			continue
		}

		if reply.Type == protocol.TypeServerError {
			var e protocol.ServerError
			if err := decode(reply.Payload, &e); err != nil {
				return err
			}
			return &ServerError{Code: e.Error, Message: e.Message}
		}
		if result == nil {
			return nil
		}
		return decode(reply.Payload, result)
	}
}

// StartTrack starts a sound and returns its track ID
func (c *Client) StartTrack(req protocol.TrackStart) (int, error) {
	var started protocol.TrackStarted
	if err := c.Call(protocol.TypeTrackStart, req, &started); err != nil {
		return -1, err
	}
	return started.TrackID, nil
}

// StopTrack stops tracks and returns how many were affected
func (c *Client) StopTrack(req protocol.TrackStop) (int, error) {
	var stopped protocol.TrackStopped
	if err := c.Call(protocol.TypeTrackStop, req, &stopped); err != nil {
		return 0, err
	}
	return stopped.Stopped, nil
}

// Status returns the engine status
func (c *Client) Status() (protocol.EngineStatus, error) {
	var status protocol.EngineStatus
	err := c.Call(protocol.TypeEngineStatus, nil, &status)
	return status, err
}

// Save returns the engine's save stream
func (c *Client) Save() ([]byte, error) {
	var state protocol.EngineState
	if err := c.Call(protocol.TypeEngineSave, nil, &state); err != nil {
		return nil, err
	}
	return state.Data, nil
}

// Restore replaces the engine state with a save stream
func (c *Client) Restore(data []byte) (protocol.EngineStatus, error) {
	var status protocol.EngineStatus
	err := c.Call(protocol.TypeEngineRestore, protocol.EngineState{Data: data}, &status)
	return status, err
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// decode converts a generic JSON payload into v
func decode(payload, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid reply payload: %w", err)
	}
	return nil
}
