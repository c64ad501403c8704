package lockmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireRelease(t *testing.T) {
	lmap := MkLockMap()
	lmap.Acquire(1)
	lmap.Acquire(1 + NSHARD) // same shard, different address
	lmap.Release(1)
	lmap.Acquire(1)
	lmap.Release(1)
	lmap.Release(1 + NSHARD)
	assert.Panics(t, func() { lmap.Release(2) }, "release of unheld lock")
}

func TestMutualExclusion(t *testing.T) {
	lmap := MkLockMap()
	const nthread = 10
	const iters = 1000
	counters := make([]int, 3)
	var wg sync.WaitGroup
	wg.Add(nthread)
	for i := 0; i < nthread; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				a := uint64(j % len(counters))
				lmap.Acquire(a)
				counters[a]++
				lmap.Release(a)
			}
		}()
	}
	wg.Wait()
	total := 0
	for _, c := range counters {
		total += c
	}
	assert.Equal(t, nthread*iters, total)
}
