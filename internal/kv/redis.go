package kv

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fittrack:"

// Redis backs the keyed store with Redis. Each path maps to one key holding
// the JSON document; subtree reads scan the path prefix.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(path string) string {
	return redisKeyPrefix + path
}

// GenerateKey returns a fresh unique child key for the path.
func (r *Redis) GenerateKey(string) string {
	return uuid.NewString()
}

// Set stores a document at a leaf path.
func (r *Redis) Set(path string, value []byte, done func(error)) {
	go func() {
		done(r.client.Set(context.Background(), redisKey(path), value, 0).Err())
	}()
}

// Once reads the leaf at path, falling back to a prefix scan for subtrees.
func (r *Redis) Once(path string, onData func(Snapshot), onError func(error)) {
	go func() {
		ctx := context.Background()

		value, err := r.client.Get(ctx, redisKey(path)).Bytes()
		if err == nil {
			onData(Snapshot{Path: path, Value: value})
			return
		}
		if !errors.Is(err, redis.Nil) {
			onError(err)
			return
		}

		snap := Snapshot{Path: path}
		prefix := redisKey(path) + "/"
		iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			rest := strings.TrimPrefix(iter.Val(), prefix)
			if strings.Contains(rest, "/") {
				continue
			}
			child, err := r.client.Get(ctx, iter.Val()).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				onError(err)
				return
			}
			if snap.Children == nil {
				snap.Children = make(map[string][]byte)
			}
			snap.Children[rest] = child
		}
		if err := iter.Err(); err != nil {
			onError(err)
			return
		}
		onData(snap)
	}()
}

// Delete removes the path and its subtree.
func (r *Redis) Delete(path string, done func(error)) {
	go func() {
		ctx := context.Background()

		if err := r.client.Del(ctx, redisKey(path)).Err(); err != nil {
			done(err)
			return
		}

		iter := r.client.Scan(ctx, 0, redisKey(path)+"/*", 0).Iterator()
		for iter.Next(ctx) {
			if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
				done(err)
				return
			}
		}
		done(iter.Err())
	}()
}
