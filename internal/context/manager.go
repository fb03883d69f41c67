// Package context keeps the bounded in-memory transcript of an interactive
// chat in the legacy message format.
package context

import (
	"sync"

	"github.com/ashutoshrp06/brainhands/pkg/models"
)

type Manager struct {
	messages    []models.LegacyMessage
	maxMessages int
	mu          sync.RWMutex
}

func NewManager(maxMessages int) *Manager {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	return &Manager{
		messages:    make([]models.LegacyMessage, 0),
		maxMessages: maxMessages,
	}
}

func (m *Manager) AddMessage(msg models.LegacyMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)

	if len(m.messages) > m.maxMessages {
		m.messages = m.messages[len(m.messages)-m.maxMessages:]
	}
}

func (m *Manager) GetMessages() []models.LegacyMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.LegacyMessage, len(m.messages))
	copy(result, m.messages)
	return result
}

// Len returns the number of messages held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = make([]models.LegacyMessage, 0)
}
