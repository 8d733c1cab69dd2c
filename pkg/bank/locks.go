package bank

import (
	"sync"

	"github.com/Overclock-Validator/vault/pkg/util"
	"github.com/gagliardetto/solana-go"
	cmap "github.com/orcaman/concurrent-map/v2"
)

type lockEntry struct {
	mu sync.Mutex
	// refs counts holders plus waiters; only touched under the map shard lock
	refs int
}

// lockTable hands out one mutex per account address. An entry lives only
// while some caller holds or waits on it.
type lockTable struct {
	locks cmap.ConcurrentMap[string, *lockEntry]
}

func newLockTable() *lockTable {
	return &lockTable{locks: cmap.New[*lockEntry]()}
}

func (lt *lockTable) acquire(key string) *lockEntry {
	entry := lt.locks.Upsert(key, nil, func(exist bool, inMap *lockEntry, _ *lockEntry) *lockEntry {
		if !exist {
			inMap = new(lockEntry)
		}
		inMap.refs++
		return inMap
	})
	entry.mu.Lock()
	return entry
}

func (lt *lockTable) release(key string, entry *lockEntry) {
	entry.mu.Unlock()
	lt.locks.RemoveCb(key, func(_ string, inMap *lockEntry, exists bool) bool {
		if !exists {
			return false
		}
		inMap.refs--
		return inMap.refs == 0
	})
}

// lock acquires the mutexes of all keys in canonical order, so two callers
// locking overlapping sets cannot deadlock.
func (lt *lockTable) lock(keys ...solana.PublicKey) (unlock func()) {
	sorted := util.SortedUniquePubkeys(keys)

	names := make([]string, len(sorted))
	held := make([]*lockEntry, len(sorted))
	for idx, key := range sorted {
		names[idx] = key.String()
		held[idx] = lt.acquire(names[idx])
	}

	return func() {
		for idx := len(held) - 1; idx >= 0; idx-- {
			lt.release(names[idx], held[idx])
		}
	}
}
