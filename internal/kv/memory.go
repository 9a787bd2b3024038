package kv

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Backend used for local development and tests. It
// honours the asynchronous contract by delivering every callback on its own
// goroutine.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory constructs an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// GenerateKey returns a fresh unique child key for the path.
func (m *Memory) GenerateKey(string) string {
	return uuid.NewString()
}

// Set stores a document at a leaf path.
func (m *Memory) Set(path string, value []byte, done func(error)) {
	m.mu.Lock()
	buf := make([]byte, len(value))
	copy(buf, value)
	m.data[path] = buf
	m.mu.Unlock()

	go done(nil)
}

// Once reads the leaf at path, or the immediate children beneath it.
func (m *Memory) Once(path string, onData func(Snapshot), onError func(error)) {
	m.mu.RLock()
	snap := Snapshot{Path: path}
	if value, ok := m.data[path]; ok {
		snap.Value = append([]byte(nil), value...)
	} else {
		prefix := path + "/"
		for p, value := range m.data {
			rest, ok := strings.CutPrefix(p, prefix)
			if !ok || strings.Contains(rest, "/") {
				continue
			}
			if snap.Children == nil {
				snap.Children = make(map[string][]byte)
			}
			snap.Children[rest] = append([]byte(nil), value...)
		}
	}
	m.mu.RUnlock()

	go onData(snap)
}

// Delete removes the path and its subtree.
func (m *Memory) Delete(path string, done func(error)) {
	m.mu.Lock()
	delete(m.data, path)
	prefix := path + "/"
	for p := range m.data {
		if strings.HasPrefix(p, prefix) {
			delete(m.data, p)
		}
	}
	m.mu.Unlock()

	go done(nil)
}
