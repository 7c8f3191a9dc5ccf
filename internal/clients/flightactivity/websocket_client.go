// Package flightactivity maintains a live view of recent flight movements per
// airline, fed by a streaming websocket feed.
package flightactivity

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/skylease/watchtower/internal/clientdata"
	"github.com/skylease/watchtower/internal/domain"
)

const (
	// WebSocket connection constants
	writeWait   = 10 * time.Second
	dialTimeout = 30 * time.Second

	// Reconnection constants
	baseReconnectDelay   = 5 * time.Second
	maxReconnectDelay    = 5 * time.Minute
	maxReconnectAttempts = 10

	// Activity observations older than this are dropped from counts.
	activityWindow = 24 * time.Hour
)

// flightEvent is one movement message from the feed.
type flightEvent struct {
	AirlineCode string `json:"airline_iata"`
	FlightID    string `json:"flight_id"`
	Timestamp   int64  `json:"ts"` // unix seconds
}

// Client streams flight movements and answers recent-activity queries.
// Counts live in memory; the latest snapshot per airline is also written to
// the client data cache so activity survives restarts.
type Client struct {
	// Connection
	url        string
	apiKey     string
	httpClient *http.Client // Reusable HTTP client configured for HTTP/1.1
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	mu         sync.RWMutex

	// Dependencies
	cacheRepo *clientdata.Repository
	log       zerolog.Logger

	// State
	connected    bool
	reconnecting bool
	stopChan     chan struct{}
	stopped      bool

	// Per-airline observation timestamps (thread-safe)
	observations map[string][]time.Time
	lastSeen     map[string]time.Time
	cacheMu      sync.RWMutex
}

// createHTTP1Client creates an HTTP client that forces HTTP/1.1.
// Required because edge proxies negotiate HTTP/2 via TLS ALPN, but the
// WebSocket upgrade handshake needs HTTP/1.1.
func createHTTP1Client() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				NextProtos: []string{"http/1.1"},
			},
			ForceAttemptHTTP2: false,
		},
	}
}

// NewClient creates a new flight activity client.
// cacheRepo is optional - if nil, snapshots are not persisted.
func NewClient(url, apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		url:          url,
		apiKey:       apiKey,
		httpClient:   createHTTP1Client(),
		cacheRepo:    cacheRepo,
		log:          log.With().Str("component", "flight_activity_websocket").Logger(),
		observations: make(map[string][]time.Time),
		lastSeen:     make(map[string]time.Time),
		stopChan:     make(chan struct{}),
	}
}

// Start initializes the WebSocket connection and starts the read loop.
func (c *Client) Start() error {
	c.log.Info().Msg("Starting flight activity client")

	if err := c.Connect(); err != nil {
		c.log.Warn().Err(err).Msg("Initial WebSocket connection failed, will retry in background")
		go c.reconnectLoop()
		return err
	}

	c.mu.RLock()
	ctx := c.connCtx
	c.mu.RUnlock()
	go c.readMessages(ctx)

	c.log.Info().Msg("Flight activity client started")
	return nil
}

// Stop gracefully shuts down the WebSocket connection.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	c.log.Info().Msg("Stopping flight activity client")
	close(c.stopChan)
	return c.Disconnect()
}

// Connect establishes the WebSocket connection and subscribes to the flights channel.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wsURL := c.url
	if c.apiKey != "" {
		wsURL += "?api_key=" + c.apiKey
	}

	c.log.Info().Str("url", c.url).Msg("Connecting to flight activity feed")

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to dial WebSocket: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connCtx = connCtx
	c.cancelFunc = connCancel
	c.connected = true

	if err := c.subscribe(connCtx); err != nil {
		connCancel()
		conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		c.conn = nil
		c.connCtx = nil
		c.cancelFunc = nil
		c.connected = false
		return fmt.Errorf("failed to subscribe to flights: %w", err)
	}

	c.log.Info().Msg("Connected to flight activity feed")
	return nil
}

// Disconnect closes the WebSocket connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	if c.cancelFunc != nil {
		c.cancelFunc()
		c.cancelFunc = nil
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	c.connCtx = nil
	c.connected = false

	if err != nil {
		return fmt.Errorf("error closing WebSocket: %w", err)
	}

	return nil
}

// subscribe sends the subscription message for the flights channel.
func (c *Client) subscribe(ctx context.Context) error {
	subscribeMsg := []string{"flights"}

	data, err := json.Marshal(subscribeMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send subscription message: %w", err)
	}

	c.log.Info().Msg("Subscribed to flights channel")
	return nil
}

// readMessages continuously reads messages from the WebSocket.
func (c *Client) readMessages(ctx context.Context) {
	defer func() {
		c.log.Info().Msg("Read loop stopped")
		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()
		if !stopped {
			go c.reconnectLoop()
		}
	}()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			c.log.Debug().Msg("Read loop context cancelled")
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			c.log.Warn().Msg("Connection is nil, stopping read loop")
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				c.log.Info().Int("status", int(closeStatus)).Msg("WebSocket closed normally")
			} else if ctx.Err() != nil {
				c.log.Debug().Msg("Read cancelled by context")
			} else {
				c.log.Error().Err(err).Msg("Unexpected WebSocket read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			c.log.Debug().Int("type", int(msgType)).Msg("Ignoring non-text message")
			continue
		}

		if err := c.handleMessage(message); err != nil {
			c.log.Error().Err(err).Msg("Failed to handle WebSocket message")
			// Continue reading despite parse errors
		}
	}
}

// handleMessage parses a ["flights", {...}] frame and records the movement.
func (c *Client) handleMessage(message []byte) error {
	var rawMessage []json.RawMessage
	if err := json.Unmarshal(message, &rawMessage); err != nil {
		return fmt.Errorf("failed to parse message array: %w", err)
	}

	if len(rawMessage) < 2 {
		return fmt.Errorf("message array too short: expected 2 elements, got %d", len(rawMessage))
	}

	var channel string
	if err := json.Unmarshal(rawMessage[0], &channel); err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}
	if channel != "flights" {
		c.log.Debug().Str("channel", channel).Msg("Ignoring non-flights message")
		return nil
	}

	var event flightEvent
	if err := json.Unmarshal(rawMessage[1], &event); err != nil {
		return fmt.Errorf("failed to parse flight event: %w", err)
	}
	if event.AirlineCode == "" {
		return nil
	}

	c.recordObservation(event)
	return nil
}

// recordObservation appends a movement, prunes the 24h window and persists the
// airline's current snapshot.
func (c *Client) recordObservation(event flightEvent) {
	observedAt := time.Now()
	if event.Timestamp > 0 {
		observedAt = time.Unix(event.Timestamp, 0)
	}

	c.cacheMu.Lock()
	obs := append(c.observations[event.AirlineCode], observedAt)
	cutoff := time.Now().Add(-activityWindow)
	pruned := obs[:0]
	for _, t := range obs {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}
	c.observations[event.AirlineCode] = pruned
	if observedAt.After(c.lastSeen[event.AirlineCode]) {
		c.lastSeen[event.AirlineCode] = observedAt
	}
	snapshot := domain.ActivityData{
		FlightsLast24h: len(pruned),
		LastSeen:       c.lastSeen[event.AirlineCode],
	}
	c.cacheMu.Unlock()

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("flight_activity", event.AirlineCode, snapshot, clientdata.TTLFlightActivity); err != nil {
			c.log.Warn().Err(err).Str("airline", event.AirlineCode).Msg("Failed to persist activity snapshot")
		}
	}
}

// Activity returns recent activity for an airline. Falls back to the persisted
// snapshot when the in-memory window is empty (e.g. just after a restart).
// An airline with no recorded movements returns nil, nil.
func (c *Client) Activity(airlineCode string) (*domain.ActivityData, error) {
	c.cacheMu.RLock()
	obs := c.observations[airlineCode]
	last := c.lastSeen[airlineCode]
	c.cacheMu.RUnlock()

	if len(obs) > 0 {
		cutoff := time.Now().Add(-activityWindow)
		count := 0
		for _, t := range obs {
			if t.After(cutoff) {
				count++
			}
		}
		return &domain.ActivityData{FlightsLast24h: count, LastSeen: last}, nil
	}

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.Get("flight_activity", airlineCode)
		if err == nil && data != nil {
			var cached domain.ActivityData
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	return nil, nil
}

// reconnectLoop handles automatic reconnection with exponential backoff.
func (c *Client) reconnectLoop() {
	c.mu.Lock()
	if c.reconnecting || c.stopped {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-c.stopChan:
			c.log.Info().Msg("Reconnection loop stopped")
			return
		default:
		}

		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()
		if stopped {
			return
		}

		attempt++
		delay := calculateBackoff(attempt)

		if attempt <= maxReconnectAttempts {
			c.log.Info().Int("attempt", attempt).Dur("delay", delay).
				Msg("Attempting to reconnect to flight activity feed")
		} else {
			c.log.Warn().Int("attempt", attempt).Dur("delay", delay).
				Msg("Reconnection attempt (exceeded max attempts, will keep retrying)")
		}

		select {
		case <-time.After(delay):
		case <-c.stopChan:
			return
		}

		if err := c.Connect(); err != nil {
			c.log.Error().Err(err).Int("attempt", attempt).Msg("Reconnection failed")
			continue
		}

		c.log.Info().Int("attempt", attempt).Msg("Reconnected to flight activity feed")
		attempt = 0

		c.mu.RLock()
		ctx := c.connCtx
		c.mu.RUnlock()
		go c.readMessages(ctx)
		return
	}
}

// calculateBackoff returns the exponential backoff delay for an attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}

// IsConnected returns the current connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
