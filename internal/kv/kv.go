// Package kv defines the keyed hierarchical store contract the engine runs
// on. Paths are slash-separated; each leaf holds one JSON document. Reads are
// delivered asynchronously through one-shot callbacks, mirroring push-style
// remote stores; the store layer above bridges them into bounded
// request/response calls.
package kv

import "strings"

// Snapshot is the result of a one-shot read at a path. A leaf read populates
// Value; a subtree read populates Children with the immediate child key of
// each document under the path.
type Snapshot struct {
	Path     string
	Value    []byte
	Children map[string][]byte
}

// Exists reports whether the path held any data.
func (s Snapshot) Exists() bool {
	return s.Value != nil || len(s.Children) > 0
}

// Backend abstracts the remote keyed store. Implementations must invoke
// exactly one callback per call, possibly from another goroutine. Delete
// removes the path and everything beneath it.
type Backend interface {
	GenerateKey(path string) string
	Set(path string, value []byte, done func(error))
	Once(path string, onData func(Snapshot), onError func(error))
	Delete(path string, done func(error))
}

// Join builds a store path from segments.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}
