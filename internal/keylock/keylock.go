// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package keylock provides per-key mutual exclusion. Operations on the
// same key are serialized; operations on distinct keys proceed in
// parallel. Idle entries are reclaimed so the map does not grow with the
// number of keys ever seen.
package keylock

import "sync"

// KeyedMutex is a map of mutexes addressed by string key.
// The zero value is not usable; use [New].
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Lock acquires the mutex for key and returns the corresponding unlock
// function. The unlock function must be called exactly once.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len returns the number of live entries, for tests.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
