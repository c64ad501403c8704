package alloc

import (
	"sync"

	"github.com/mit-pdos/go-simplefs/util"
)

// Alloc uses a bit map to allocate and free numbers. Bit n corresponds to
// number n; a set bit means the number is in use. Number 0 is reserved and
// never handed out, so AllocNum can use it to report failure.
type Alloc struct {
	mu     *sync.Mutex // protects bitmap
	max    uint64
	bitmap []byte
}

// MkMaxAlloc makes an allocator for the numbers [0, max), with everything but
// 0 free.
func MkMaxAlloc(max uint64) *Alloc {
	if max == 0 {
		panic("MkMaxAlloc: empty allocator")
	}
	a := &Alloc{
		mu:     new(sync.Mutex),
		max:    max,
		bitmap: make([]byte, util.RoundUp(max, 8)),
	}
	a.bitmap[0] = 1
	return a
}

func (a *Alloc) checkNum(fn string, n uint64) {
	if n == 0 || n >= a.max {
		panic(fn)
	}
}

func (a *Alloc) isSet(n uint64) bool {
	return a.bitmap[n/8]&(1<<(n%8)) != 0
}

func (a *Alloc) set(n uint64) {
	a.bitmap[n/8] = a.bitmap[n/8] | (1 << (n % 8))
}

func (a *Alloc) clear(n uint64) {
	a.bitmap[n/8] = a.bitmap[n/8] & ^(1 << (n % 8))
}

// MarkUsed reserves n without allocating it.
func (a *Alloc) MarkUsed(n uint64) {
	a.checkNum("MarkUsed", n)
	a.mu.Lock()
	a.set(n)
	a.mu.Unlock()
}

// AllocNum returns the lowest free number, or 0 if none is free.
func (a *Alloc) AllocNum() uint64 {
	var num uint64 = 0
	a.mu.Lock()
	for i, b := range a.bitmap {
		if b == 0xff {
			continue
		}
		for bit := uint64(0); bit < 8; bit++ {
			n := uint64(i)*8 + bit
			if n >= a.max {
				break
			}
			if !a.isSet(n) {
				a.set(n)
				num = n
				break
			}
		}
		if num != 0 {
			break
		}
	}
	a.mu.Unlock()
	util.DPrintf(10, "AllocNum: %d\n", num)
	return num
}

func (a *Alloc) FreeNum(num uint64) {
	a.checkNum("FreeNum", num)
	a.mu.Lock()
	a.clear(num)
	a.mu.Unlock()
	util.DPrintf(10, "FreeNum: %d\n", num)
}

func (a *Alloc) IsUsed(n uint64) bool {
	if n >= a.max {
		return false
	}
	a.mu.Lock()
	used := a.isSet(n)
	a.mu.Unlock()
	return used
}

// Max is the number of bits in the map.
func (a *Alloc) Max() uint64 {
	return a.max
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumFree counts the numbers that are not in use.
func (a *Alloc) NumFree() uint64 {
	a.mu.Lock()
	var used uint64
	for _, b := range a.bitmap {
		used += popCnt(b)
	}
	a.mu.Unlock()
	return a.max - used
}
