// internal/ws/hub.go
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"fieldworks-service/internal/domain/syncrun"

	"go.uber.org/zap"
)

// Hub fans sync-run updates out to connected dashboard clients,
// keyed by tenant so one tenant never sees another's runs.
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *runEvent

	logger *zap.Logger
}

type runEvent struct {
	tenantID int64
	payload  []byte
}

// RunUpdate is the wire shape pushed to clients.
type RunUpdate struct {
	Type string              `json:"type"`
	Run  *syncrun.RunSummary `json:"run"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *runEvent, 256),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// PublishRunUpdate notifies every client of the run's tenant. Safe to
// call from any goroutine; drops the event if the hub is saturated so
// a slow dashboard can never stall a sync.
func (h *Hub) PublishRunUpdate(tenantID int64, run *syncrun.SyncRun) {
	payload, err := json.Marshal(RunUpdate{Type: "sync_run", Run: run.Summary()})
	if err != nil {
		h.logger.Error("marshal run update", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &runEvent{tenantID: tenantID, payload: payload}:
	default:
		h.logger.Warn("run update dropped, broadcast buffer full",
			zap.Int64("tenant_id", tenantID))
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.tenantID] == nil {
		h.clients[client.tenantID] = make(map[*Client]bool)
	}
	h.clients[client.tenantID][client] = true

	h.logger.Info("ws client connected",
		zap.Int64("tenant_id", client.tenantID),
		zap.Int("total", h.totalClients()))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.tenantID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.close()

			if len(clients) == 0 {
				delete(h.clients, client.tenantID)
			}

			h.logger.Info("ws client disconnected",
				zap.Int64("tenant_id", client.tenantID),
				zap.Int("total", h.totalClients()))
		}
	}
}

func (h *Hub) deliver(ev *runEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[ev.tenantID] {
		client.send(ev.payload)
	}
}

// ConnectedClients reports active connections for a tenant.
func (h *Hub) ConnectedClients(tenantID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tenantID])
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}
