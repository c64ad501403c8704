// lockmap is a sharded lock map.
//
// The API is as if LockMap consisted of a lock for every possible uint64
// (block numbers, for the file system); LockMap.Acquire(a) acquires the lock
// associated with a and LockMap.Release(a) releases it.
//
// Only held locks take up space. Shard i keeps the set of held addresses a
// with a % NSHARD = i, and waiters for any of them sleep on the shard's
// condition variable.
package lockmap

import (
	"sync"
)

type lockShard struct {
	mu   *sync.Mutex
	cond *sync.Cond
	held map[uint64]bool
}

func mkLockShard() *lockShard {
	mu := new(sync.Mutex)
	return &lockShard{
		mu:   mu,
		cond: sync.NewCond(mu),
		held: make(map[uint64]bool),
	}
}

func (shard *lockShard) acquire(addr uint64) {
	shard.mu.Lock()
	for shard.held[addr] {
		shard.cond.Wait()
	}
	shard.held[addr] = true
	shard.mu.Unlock()
}

func (shard *lockShard) release(addr uint64) {
	shard.mu.Lock()
	if !shard.held[addr] {
		panic("release")
	}
	delete(shard.held, addr)
	// waiters may be after other addresses in this shard
	shard.cond.Broadcast()
	shard.mu.Unlock()
}

const NSHARD uint64 = 43

type LockMap struct {
	shards []*lockShard
}

func MkLockMap() *LockMap {
	var shards []*lockShard
	for i := uint64(0); i < NSHARD; i++ {
		shards = append(shards, mkLockShard())
	}
	return &LockMap{
		shards: shards,
	}
}

func (lmap *LockMap) Acquire(addr uint64) {
	lmap.shards[addr%NSHARD].acquire(addr)
}

func (lmap *LockMap) Release(addr uint64) {
	lmap.shards[addr%NSHARD].release(addr)
}
