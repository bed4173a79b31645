// Package secretstore persists small secrets (auth sessions, tokens) behind a
// backend with a hard per-entry size cap, transparently sharding values that
// exceed it.
package secretstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned for keys that were never stored or were deleted.
var ErrNotFound = errors.New("secretstore: key not found")

// Backend is a flat key/value secret holder. Entries may be size-capped;
// Sharded works around that above this interface.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// DefaultShardSize stays under the 2048-byte per-entry cap common to mobile
// secure stores.
const DefaultShardSize = 2000

type manifest struct {
	Sharded bool     `json:"sharded"`
	Keys    []string `json:"keys"`
}

// Sharded wraps a Backend so values larger than ShardSize split into
// "<key>_shard_<n>" entries with a JSON manifest under the original key.
// Values at or under the limit are stored directly, so small entries written
// by older code read back unchanged.
type Sharded struct {
	Backend   Backend
	ShardSize int // 0 means DefaultShardSize
}

func (s *Sharded) shardSize() int {
	if s.ShardSize > 0 {
		return s.ShardSize
	}
	return DefaultShardSize
}

func (s *Sharded) Store(key, value string) error {
	size := s.shardSize()
	if len(value) <= size {
		return s.Backend.Set(key, value)
	}

	var keys []string
	for i := 0; i < len(value); i += size {
		end := i + size
		if end > len(value) {
			end = len(value)
		}
		shardKey := fmt.Sprintf("%s_shard_%d", key, i/size)
		if err := s.Backend.Set(shardKey, value[i:end]); err != nil {
			return fmt.Errorf("writing shard %s: %w", shardKey, err)
		}
		keys = append(keys, shardKey)
	}

	m, err := json.Marshal(manifest{Sharded: true, Keys: keys})
	if err != nil {
		return err
	}
	return s.Backend.Set(key, string(m))
}

func (s *Sharded) Load(key string) (string, error) {
	raw, err := s.Backend.Get(key)
	if err != nil {
		return "", err
	}

	var m manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil || !m.Sharded {
		// Not a manifest: the value was stored directly.
		return raw, nil
	}

	var b strings.Builder
	for _, shardKey := range m.Keys {
		shard, err := s.Backend.Get(shardKey)
		if err != nil {
			return "", fmt.Errorf("reading shard %s: %w", shardKey, err)
		}
		b.WriteString(shard)
	}
	return b.String(), nil
}

// Remove deletes the entry and, when it was sharded, every shard named by the
// manifest. Missing shards are ignored: a half-written entry still cleans up.
func (s *Sharded) Remove(key string) error {
	raw, err := s.Backend.Get(key)
	if err == nil {
		var m manifest
		if jerr := json.Unmarshal([]byte(raw), &m); jerr == nil && m.Sharded {
			for _, shardKey := range m.Keys {
				if derr := s.Backend.Delete(shardKey); derr != nil && !errors.Is(derr, ErrNotFound) {
					return fmt.Errorf("deleting shard %s: %w", shardKey, derr)
				}
			}
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.Backend.Delete(key)
}
