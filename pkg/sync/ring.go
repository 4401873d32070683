package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring mapping string keys, such as project IDs, to
// a fixed set of entries.
type ring[T any] struct {
	hashRing *treemap.Map

	// Cached since treemap.Map.Min() is O(log n)
	minEntryValue T
}

// newRing returns a consistent hash ring where each entry is replicated
// replicationFactor times.
func newRing[T any](entries map[string]T, replicationFactor uint) *ring[T] {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for k, v := range entries {
		keyHash, _ := murmur3.Sum128([]byte(k))
		keyHashBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(keyHashBytes, keyHash)

		indexBytes := make([]byte, 4)
		for i := uint32(0); i < uint32(replicationFactor); i++ {
			binary.LittleEndian.PutUint32(indexBytes, i)

			hasher := murmur3.New128()
			hasher.Write(keyHashBytes)
			hasher.Write(indexBytes)
			hash, _ := hasher.Sum128()
			hashRing.Put(int64(hash), v)
		}
	}

	r := &ring[T]{hashRing: hashRing}
	if _, minEntryValue := hashRing.Min(); minEntryValue != nil {
		r.minEntryValue = minEntryValue.(T)
	}
	return r
}

// shard returns the entry owning key.
func (r *ring[T]) shard(key string) T {
	raw, _ := murmur3.Sum128([]byte(key))
	_, shard := r.hashRing.Ceiling(int64(raw))
	if shard != nil {
		return shard.(T)
	}
	return r.minEntryValue
}
