package websockets

import (
	"sync"

	"github.com/google/uuid"
)

const (
	STATUS_UNAUTHENTICATED = iota
	STATUS_AUTHENTICATED
	STATUS_CLOSED
)

type Hub struct {
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)

		case client := <-h.unregister:
			m.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message, m)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	m.hub.clients[client.ID] = client

	m.log.Function("registerClient").Info("Client registered", "clientID", client.ID)
}

// unregisterClient runs once per client even though both pumps and the handler ask for it.
func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	if _, ok := m.hub.clients[client.ID]; !ok {
		return
	}

	delete(m.hub.clients, client.ID)
	client.Status = STATUS_CLOSED
	close(client.send)

	m.log.Function("unregisterClient").Info(
		"Client unregistered",
		"clientID",
		client.ID,
		"profileID",
		client.ProfileID,
	)
}

// broadcastMessage delivers to authenticated clients only. Slow clients drop the message
// rather than stall the hub.
func (h *Hub) broadcastMessage(message Message, m *Manager) int {
	log := m.log.Function("broadcastMessage")

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	sentCount := 0
	for clientID, client := range h.clients {
		if client.Status != STATUS_AUTHENTICATED {
			continue
		}

		select {
		case client.send <- message:
			sentCount++
		default:
			log.Warn("Client send buffer full, dropping message", "clientID", clientID, "messageID", message.ID)
		}
	}

	log.Debug(
		"Broadcast complete",
		"messageID",
		message.ID,
		"sentTo",
		sentCount,
		"totalClients",
		len(h.clients),
	)

	return sentCount
}

func (m *Manager) clientStatus(client *Client) int {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()
	return client.Status
}

func (m *Manager) promoteClient(client *Client, profileID uuid.UUID) bool {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	if client.Status != STATUS_UNAUTHENTICATED {
		return false
	}

	client.ProfileID = profileID
	client.Status = STATUS_AUTHENTICATED
	return true
}

func (m *Manager) ConnectedAdmins() int {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()

	count := 0
	for _, client := range m.hub.clients {
		if client.Status == STATUS_AUTHENTICATED {
			count++
		}
	}
	return count
}
