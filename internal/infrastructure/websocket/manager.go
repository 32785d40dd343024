package websocket

import (
	"sync"

	"marketchat/pkg/logger"
)

// Registry tracks live connections by user id. Manager is the in-process
// implementation; a pub/sub backed one can sit behind the same methods.
type Registry interface {
	Register(client *Client)
	// Unregister reports whether client was the user's last connection.
	Unregister(client *Client) bool
	// SendToUser queues message on every connection of userID and returns how
	// many accepted it.
	SendToUser(userID string, message []byte) int
	BroadcastExcept(userID string, message []byte)
	ConnectionCount() int
}

// Manager manages all active WebSocket connections
type Manager struct {
	clients map[string]map[*Client]struct{}
	mutex   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[client.UserID] = conns
	}
	conns[client] = struct{}{}

	logger.Info("WebSocket: client registered for user %s (%d open)", client.UserID, len(conns))
}

func (m *Manager) Unregister(client *Client) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[client.UserID]
	if !ok {
		return false
	}
	if _, ok := conns[client]; !ok {
		return false
	}

	delete(conns, client)
	close(client.Send)

	last := len(conns) == 0
	if last {
		delete(m.clients, client.UserID)
	}

	logger.Info("WebSocket: client unregistered for user %s (%d open)", client.UserID, len(conns))
	return last
}

func (m *Manager) SendToUser(userID string, message []byte) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	delivered := 0
	for client := range m.clients[userID] {
		if client.enqueue(message) {
			delivered++
		}
	}
	return delivered
}

func (m *Manager) BroadcastExcept(userID string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for id, conns := range m.clients {
		if id == userID {
			continue
		}
		for client := range conns {
			client.enqueue(message)
		}
	}
}

func (m *Manager) ConnectionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	count := 0
	for _, conns := range m.clients {
		count += len(conns)
	}
	return count
}
