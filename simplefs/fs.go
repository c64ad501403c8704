// Package simplefs is a flat file system of numbered inodes on a block
// device.
//
// Block 0 holds the superblock, the next tenth of the disk holds the inode
// table, and the rest are data blocks. Each inode has NDIRECT direct block
// pointers and one indirect block of NPTRBLOCK more pointers. Free blocks are
// tracked by an in-memory bitmap that Mount rebuilds from the inodes; it is
// never written to disk.
//
// Operations may be called concurrently. Format, Mount and Unmount exclude
// everything else; other operations lock the inode table block holding their
// inode for their whole duration, and the bitmap has its own lock.
package simplefs

import (
	"fmt"
	"sync"

	"github.com/mit-pdos/go-simplefs/alloc"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/lockmap"
	"github.com/mit-pdos/go-simplefs/super"
	"github.com/mit-pdos/go-simplefs/util"
)

// FileSys is a file system on one disk.
type FileSys struct {
	mu      *sync.RWMutex // protects mounted, super and alloc
	locks   *lockmap.LockMap
	d       disk.Disk
	super   *super.FsSuper
	alloc   *alloc.Alloc
	mounted bool
}

// MkFileSys wraps d. The file system must be mounted (after formatting, for
// a fresh disk) before files can be used.
func MkFileSys(d disk.Disk) *FileSys {
	return &FileSys{
		mu:    new(sync.RWMutex),
		locks: lockmap.MkLockMap(),
		d:     d,
	}
}

// Format writes an empty file system over the whole disk.
func (fs *FileSys) Format() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.mounted {
		return fmt.Errorf("format: %w", ErrMounted)
	}
	nblocks, err := fs.d.Size()
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	sb := super.MkFsSuper(nblocks)
	if !sb.Valid() {
		return fmt.Errorf("format %d blocks: %w", nblocks, ErrDiskTooSmall)
	}
	if err := fs.d.Write(super.SUPERBLK, sb.Encode()); err != nil {
		return fmt.Errorf("format: writing superblock: %w", err)
	}
	// an all-zero inode is free, with no size and no blocks
	zero := make(disk.Block, common.BlockSize)
	for blkno := sb.InodeStart(); blkno < sb.DataStart(); blkno++ {
		if err := fs.d.Write(blkno, zero); err != nil {
			return fmt.Errorf("format: clearing inode block %d: %w", blkno, err)
		}
	}
	if err := fs.d.Barrier(); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	fs.super = sb
	fs.alloc = mkBitmap(sb)
	util.DPrintf(1, "Format: %v\n", sb)
	return nil
}

// mkBitmap makes a bitmap with only the superblock and inode table in use.
func mkBitmap(sb *super.FsSuper) *alloc.Alloc {
	a := alloc.MkMaxAlloc(sb.NBlocks)
	for blkno := sb.InodeStart(); blkno < sb.DataStart(); blkno++ {
		a.MarkUsed(blkno)
	}
	return a
}

// rebuildBitmap scans the inode table and marks every block a valid inode
// can reach.
func rebuildBitmap(d disk.Disk, sb *super.FsSuper) (*alloc.Alloc, error) {
	a := mkBitmap(sb)
	err := scan(d, sb, func(ip *inode.Inode, bn common.Bnum) error {
		a.MarkUsed(bn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Mount checks for a file system on disk and rebuilds the free bitmap.
func (fs *FileSys) Mount() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.mounted {
		return fmt.Errorf("mount: %w", ErrMounted)
	}
	blk, err := fs.d.Read(super.SUPERBLK)
	if err != nil {
		return fmt.Errorf("mount: reading superblock: %w", err)
	}
	sb := super.Decode(blk)
	if !sb.Valid() {
		return fmt.Errorf("mount: %w", ErrBadMagic)
	}
	nblocks, err := fs.d.Size()
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	if sb.NBlocks > nblocks {
		return fmt.Errorf("mount: superblock claims %d blocks, disk has %d: %w",
			sb.NBlocks, nblocks, ErrCorrupt)
	}
	a, err := rebuildBitmap(fs.d, sb)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	fs.super = sb
	fs.alloc = a
	fs.mounted = true
	util.DPrintf(1, "Mount: %v, %d blocks free\n", sb, a.NumFree())
	return nil
}

// Unmount flushes the disk and drops the in-memory state.
func (fs *FileSys) Unmount() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.mounted {
		return fmt.Errorf("unmount: %w", ErrNotMounted)
	}
	if err := fs.d.Barrier(); err != nil {
		return fmt.Errorf("unmount: %w", err)
	}
	fs.super = nil
	fs.alloc = nil
	fs.mounted = false
	util.DPrintf(1, "Unmount\n")
	return nil
}

// NumFree reports how many data blocks are free.
func (fs *FileSys) NumFree() (uint64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.mounted {
		return 0, ErrNotMounted
	}
	return fs.alloc.NumFree(), nil
}
