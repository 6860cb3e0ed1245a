package jobcache

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/runrgateway/pkg/gateway/domain"
)

type memoryEntry struct {
	job       domain.Job
	expiresAt time.Time
}

// Memory is an in-process Cache. A zero ttl keeps entries forever.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *Memory) Get(ctx context.Context, jobID string) (*domain.Job, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[jobID]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, jobID)
		m.mu.Unlock()
		return nil, false, nil
	}

	job := entry.job
	return &job, true, nil
}

func (m *Memory) Put(ctx context.Context, job *domain.Job) error {
	if job == nil || !job.Status.IsTerminal() {
		return nil
	}

	entry := memoryEntry{job: *job}
	if m.ttl > 0 {
		entry.expiresAt = time.Now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[job.ID] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error {
	return nil
}
