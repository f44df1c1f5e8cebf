// Package redistest provides an in-memory fake implementing redis.KV, so
// store-dependent logic (JobStore, rate limiters, ws-ticket consumption)
// can be tested without a live Redis, per the donor's testing conventions.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
	noTTL   bool
}

// Fake is a minimal, goroutine-safe in-memory store behind redis.KV.
type Fake struct {
	mu   sync.Mutex
	data map[string]entry
}

// New builds an empty Fake.
func New() *Fake {
	return &Fake{data: map[string]entry{}}
}

func (f *Fake) get(key string) (string, bool) {
	e, ok := f.data[key]
	if !ok {
		return "", false
	}
	if !e.noTTL && time.Now().After(e.expires) {
		delete(f.data, key)
		return "", false
	}
	return e.value, true
}

func (f *Fake) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = toEntry(value, ttl)
	return nil
}

func (f *Fake) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.get(key); ok {
		return false, nil
	}
	f.data[key] = toEntry(value, ttl)
	return true, nil
}

func (f *Fake) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.get(key)
	return v, ok, nil
}

func (f *Fake) GetDel(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.get(key)
	if ok {
		delete(f.data, key)
	}
	return v, ok, nil
}

func (f *Fake) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *Fake) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.get(key)
	return ok, nil
}

func (f *Fake) IncrWithExpire(_ context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.get(key)
	n := int64(0)
	if ok {
		fmt.Sscanf(v, "%d", &n)
	}
	n++
	e := toEntry(fmt.Sprintf("%d", n), ttl)
	if ok {
		e.expires = f.data[key].expires
		e.noTTL = f.data[key].noTTL
	}
	f.data[key] = e
	return n, nil
}

func (f *Fake) Publish(_ context.Context, _ string, _ interface{}) error {
	return nil
}

func toEntry(value interface{}, ttl time.Duration) entry {
	e := entry{value: fmt.Sprintf("%v", value)}
	if ttl <= 0 {
		e.noTTL = true
	} else {
		e.expires = time.Now().Add(ttl)
	}
	return e
}
