package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	value      V
	expiration time.Time
}

// table mapa con expiración absoluta por entrada. Las escrituras reemplazan la entrada
// completa (last writer wins); nunca se modifica un valor en sitio.
type table[V any] struct {
	mu   sync.RWMutex
	data map[string]item[V]
	ttl  time.Duration
	now  func() time.Time
}

func newTable[V any](ttl time.Duration, now func() time.Time) *table[V] {
	return &table[V]{data: make(map[string]item[V]), ttl: ttl, now: now}
}

func (t *table[V]) get(key string) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	it, ok := t.data[key]
	if !ok || !t.now().Before(it.expiration) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (t *table[V]) set(key string, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data[key] = item[V]{value: value, expiration: t.now().Add(t.ttl)}
}

func (t *table[V]) delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.data, key)
}

// deleteFunc borra las entradas cuyo valor cumple match. Devuelve cuántas borró.
func (t *table[V]) deleteFunc(match func(V) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for key, it := range t.data {
		if match(it.value) {
			delete(t.data, key)
			n++
		}
	}
	return n
}

func (t *table[V]) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = make(map[string]item[V])
}

func (t *table[V]) purgeExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, it := range t.data {
		if !now.Before(it.expiration) {
			delete(t.data, key)
		}
	}
}

func (t *table[V]) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}
