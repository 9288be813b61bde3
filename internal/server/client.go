// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Tyrowin/gochat-relay/internal/metrics"
	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/protocol"
)

const (
	sendBufferSize = 256
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
)

// Client is one WebSocket connection attached to the hub. The hub addresses
// it by id; identity lives in the presence registry, not here.
type Client struct {
	id      presence.ConnID
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	addr    string
	limiter *rate.Limiter
	logger  zerolog.Logger

	maxMessageSize int64

	// Owned by the hub goroutine.
	closed       bool
	disconnected bool
}

// NewClient creates a new Client for conn with a fresh connection id and a
// rate limiter built from the hub's configuration.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	id := presence.ConnID(uuid.NewString())

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            hub,
		addr:           addr,
		limiter:        newRateLimiter(cfg.RateLimit),
		logger:         hub.logger.With().Str("conn", string(id)).Str("addr", addr).Logger(),
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// ID returns the connection id the router knows this client by.
func (c *Client) ID() presence.ConnID {
	return c.id
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("setting initial read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error().Err(err).Msg("setting read deadline in pong handler")
		}
		return nil
	})
}

// logReadError reports why the read loop is ending.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn().Int64("limit", c.maxMessageSize).Msg("frame exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Debug().Err(err).Msg("client disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Debug().Err(err).Msg("connection closed")
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.logger.Warn().Err(err).Msg("unexpected websocket close")
	default:
		c.logger.Warn().Err(err).Msg("websocket read error")
	}
}

// allow consumes a rate limit token and reports whether the frame may be
// processed.
func (c *Client) allow() bool {
	if c.limiter == nil || c.limiter.Allow() {
		return true
	}
	metrics.RateLimitHits.Inc()
	c.logger.Warn().Msg("rate limit exceeded; discarding frame")
	return false
}

// processFrame decodes a raw frame and hands it to the hub loop. It returns
// false once the hub has stopped accepting events.
func (c *Client) processFrame(raw []byte) bool {
	env, err := protocol.Decode(raw)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("malformed_frame").Inc()
		c.logger.Warn().Err(err).Msg("discarding malformed frame")
		return true
	}
	return c.hub.submit(inboundEvent{sender: c, env: env})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.allow() {
			continue
		}

		if !c.processFrame(raw) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeFrame(frame, ok) {
				return
			}
		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Error().Err(err).Msg("closing connection")
	}
}

// writeFrame writes frame, then drains whatever is already queued behind it.
// Every envelope goes out as its own text message. A closed send channel
// results in a close message and ends the pump.
func (c *Client) writeFrame(frame []byte, ok bool) bool {
	if !ok {
		c.writeClose()
		return false
	}

	if !c.writeText(frame) {
		return false
	}

	for n := len(c.send); n > 0; n-- {
		queued, ok := <-c.send
		if !ok {
			c.writeClose()
			return false
		}
		if !c.writeText(queued) {
			return false
		}
	}
	return true
}

func (c *Client) writeText(frame []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("setting write deadline")
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Debug().Err(err).Msg("writing frame")
		return false
	}
	return true
}

func (c *Client) writeClose() {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("setting write deadline")
		return
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		c.logger.Debug().Err(err).Msg("writing close message")
	}
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("setting write deadline for ping")
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("writing ping")
		return false
	}
	return true
}
