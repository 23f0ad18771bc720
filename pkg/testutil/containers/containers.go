//go:build integration

// Package containers starts the backing services used by integration tests.
// Each service is started once per test binary and shared by every suite in
// it; Ryuk removes the containers when the process exits.
package containers

import (
	"sync"
	"testing"
)

type Manager struct {
	postgres fixture[*PostgresContainer]
	redis    fixture[*RedisContainer]
	kafka    fixture[*KafkaContainer]
}

var manager = sync.OnceValue(func() *Manager { return &Manager{} })

func GetManager() *Manager {
	return manager()
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return m.postgres.get(t, NewPostgresContainer)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return m.redis.get(t, NewRedisContainer)
}

func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return m.kafka.get(t, NewKafkaContainer)
}

// fixture starts a container on first use. A failed start is not cached:
// start calls t.Fatalf, which ends only the calling test.
type fixture[T any] struct {
	mu    sync.Mutex
	value T
	ready bool
}

func (f *fixture[T]) get(t *testing.T, start func(*testing.T) T) T {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready {
		f.value = start(t)
		f.ready = true
	}
	return f.value
}
