package cache

import (
	"sync"
	"time"
)

// TTLValue holds one value that expires a fixed time after it was set.
type TTLValue[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	data      T
	set       bool
	expiresAt time.Time
	now       func() time.Time
}

func NewTTLValue[T any](ttl time.Duration) *TTLValue[T] {
	return &TTLValue[T]{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (v *TTLValue[T]) WithClock(now func() time.Time) *TTLValue[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = now
	return v
}

// Get returns the value while it is fresh. An expired value is dropped.
func (v *TTLValue[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.set {
		var zero T
		return zero, false
	}
	if !v.now().Before(v.expiresAt) {
		v.clearLocked()
		var zero T
		return zero, false
	}
	return v.data, true
}

func (v *TTLValue[T]) Set(data T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = data
	v.set = true
	v.expiresAt = v.now().Add(v.ttl)
}

func (v *TTLValue[T]) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearLocked()
}

func (v *TTLValue[T]) clearLocked() {
	var zero T
	v.data = zero
	v.set = false
}

// CleanExpired drops the value once it has expired and reports 1 when it did.
func (v *TTLValue[T]) CleanExpired() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.set || v.now().Before(v.expiresAt) {
		return 0
	}
	v.clearLocked()
	return 1
}
