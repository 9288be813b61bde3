// Package server coordinates client registration, event routing, and
// connection cleanup for the relay via the Hub type.
package server

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/gochat-relay/internal/metrics"
	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/router"
)

// ErrHubClosed is returned when a client or query reaches a hub that has
// already shut down.
var ErrHubClosed = errors.New("hub closed")

// Hub owns every WebSocket connection and the router. All routing happens on
// the goroutine running Run, so registry, history and delivery order need no
// further locking. The mutex only guards the clients map for readers outside
// that goroutine.
type Hub struct {
	cfg    Config
	logger zerolog.Logger
	router *router.Router

	clients    map[presence.ConnID]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	stats      chan chan Stats

	// Clients dropped for a full send buffer, disconnected from the router
	// once the current event finishes.
	evicted []*Client

	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a hub and its router. Call Run in a separate goroutine
// before accepting connections.
func NewHub(cfg Config, logger zerolog.Logger) *Hub {
	cfg = cfg.Sanitized()
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		cfg:        cfg,
		logger:     logger,
		clients:    make(map[presence.ConnID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
		stats:      make(chan chan Stats),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.router = router.New(h,
		router.WithHistory(cfg.HistoryCapacity, cfg.HistoryReplay),
		router.WithLogger(logger),
	)
	return h
}

// Register hands a freshly upgraded client to the hub, which starts its pumps.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// submit queues an inbound event for routing. It returns false once the hub
// is shutting down.
func (h *Hub) submit(ev inboundEvent) bool {
	select {
	case h.inbound <- ev:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// leave reports that a client's read pump has ended.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Stats returns counters read on the hub goroutine.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
	case <-h.ctx.Done():
		return Stats{}, ErrHubClosed
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main event loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case ev := <-h.inbound:
			h.dispatch(ev)

		case reply := <-h.stats:
			reply <- Stats{
				Clients: h.ClientCount(),
				Online:  len(h.router.Identities()),
				History: h.router.HistoryLen(),
			}
		}
		h.disconnectEvicted()
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.logger.Warn().Msg("received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()

	metrics.ConnectedClients.Set(float64(clientCount))
	h.router.Connect(client.id)
	client.logger.Info().Int("clients", clientCount).Msg("client registered")

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if current, ok := h.clients[client.id]; ok && current == client {
		delete(h.clients, client.id)
		client.closed = true
		clientCount := len(h.clients)
		h.mutex.Unlock()
		// Close the channel after releasing the lock
		close(client.send)
		metrics.ConnectedClients.Set(float64(clientCount))
		client.logger.Info().Int("clients", clientCount).Msg("client unregistered")
	} else {
		h.mutex.Unlock()
	}

	h.disconnect(client)
}

// disconnect tells the router a connection is gone, at most once per client.
func (h *Hub) disconnect(client *Client) {
	if client.disconnected {
		return
	}
	client.disconnected = true
	h.router.Disconnect(client.id)
}

func (h *Hub) dispatch(ev inboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Str("event", ev.env.Event).Msg("recovered from panic while routing event")
		}
	}()

	// Frames already read from a connection that has since gone away.
	if ev.sender.disconnected {
		return
	}

	err := h.router.Handle(ev.sender.id, ev.env)
	switch {
	case err == nil:
	case errors.Is(err, router.ErrNotJoined), errors.Is(err, router.ErrMissingRoom):
		ev.sender.logger.Debug().Err(err).Str("event", ev.env.Event).Msg("event dropped")
	default:
		ev.sender.logger.Warn().Err(err).Str("event", ev.env.Event).Msg("event rejected")
	}
}

// Send implements router.Transport.
func (h *Hub) Send(conn presence.ConnID, frame []byte) {
	h.mutex.RLock()
	client, ok := h.clients[conn]
	h.mutex.RUnlock()
	if !ok {
		return
	}
	if !h.safeSend(client, frame) {
		h.removeFailedClients([]*Client{client})
	}
}

// Broadcast implements router.Transport.
func (h *Hub) Broadcast(frame []byte, except presence.ConnID) {
	var clientsToRemove []*Client
	for _, client := range h.getClientSnapshot() {
		if client.id == except {
			continue
		}
		if !h.safeSend(client, frame) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	h.removeFailedClients(clientsToRemove)
}

func (h *Hub) safeSend(client *Client, frame []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Msg("recovered from panic in safeSend")
		}
	}()

	if client.closed {
		return false
	}

	select {
	case client.send <- frame:
		return true
	default:
		return false
	}
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// removeFailedClients drops clients whose send buffer is full and closes
// their channels, which makes the write pump hang up.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var removed []*Client
	for _, client := range clientsToRemove {
		if current, exists := h.clients[client.id]; exists && current == client {
			delete(h.clients, client.id)
			client.closed = true
			removed = append(removed, client)
		}
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	for _, client := range removed {
		close(client.send)
		metrics.EventsDropped.WithLabelValues("slow_consumer").Inc()
		client.logger.Warn().Msg("client removed due to full send buffer")
	}
	metrics.ConnectedClients.Set(float64(clientCount))
	h.evicted = append(h.evicted, removed...)
}

// disconnectEvicted runs router.Disconnect for clients removed mid-event.
// Presence broadcasts may evict further clients, so it drains until empty.
func (h *Hub) disconnectEvicted() {
	for len(h.evicted) > 0 {
		client := h.evicted[0]
		h.evicted = h.evicted[1:]
		h.disconnect(client)
	}
}

// shutdownClients closes every active client connection.
func (h *Hub) shutdownClients() {
	h.logger.Info().Msg("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		delete(h.clients, id)
		client.closed = true
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				client.logger.Error().Err(err).Msg("closing client connection")
			}
		}
	}
	metrics.ConnectedClients.Set(0)

	h.logger.Info().Int("clients", len(clients)).Msg("closed client connections")
}

// Shutdown stops the hub and waits for every client goroutine to finish or
// for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info().Msg("initiating hub shutdown")

	h.cancel()

	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info().Msg("hub shutdown completed")
		return nil
	case <-ctx.Done():
		h.logger.Warn().Msg("hub shutdown timed out, some goroutines may still be running")
		return ctx.Err()
	}
}
