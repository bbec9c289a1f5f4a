package dedup

import (
	"sync"

	"eksi-quake-watch/internal/domain"
)

// Memory хранит ключи уже зафиксированных событий в памяти процесса.
// Состояние производное и восстанавливается из журнала срабатываний,
// поэтому потеря процесса не приводит к повторным алертам после рестарта.
type Memory struct {
	mu   sync.Mutex
	seen map[domain.EventKey]struct{}
}

var _ domain.DedupStore = (*Memory)(nil)

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{seen: make(map[domain.EventKey]struct{})}
}

// IsNew возвращает true, если ключ ещё не фиксировался.
func (m *Memory) IsNew(key domain.EventKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[key]
	return !ok
}

// MarkSeen помечает ключ как увиденный. Повторная пометка — no-op.
func (m *Memory) MarkSeen(key domain.EventKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = struct{}{}
}

// MarkIfNew атомарно проверяет и помечает ключ. Возвращает true ровно
// один раз на ключ, сколько бы горутин ни конкурировало за него.
func (m *Memory) MarkIfNew(key domain.EventKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[key]; ok {
		return false
	}
	m.seen[key] = struct{}{}
	return true
}

// Rehydrate загружает ранее сохранённые ключи.
func (m *Memory) Rehydrate(keys []domain.EventKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.seen[key] = struct{}{}
	}
}

// Len возвращает количество известных ключей.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
