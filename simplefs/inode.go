package simplefs

import (
	"fmt"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/util"
)

// withInode runs f on valid inode inum, holding the lock on its inode table
// block.
func (fs *FileSys) withInode(inum common.Inum, f func(r *inode.Ref) error) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.mounted {
		return ErrNotMounted
	}
	if !fs.super.ValidInum(inum) {
		return fmt.Errorf("inode %d: %w", inum, ErrInvalidInum)
	}
	blkno := fs.super.Inum2Addr(inum).Blkno
	fs.locks.Acquire(blkno)
	defer fs.locks.Release(blkno)
	r, err := inode.Load(fs.d, fs.super, inum)
	if err != nil {
		return err
	}
	if !r.Valid {
		return fmt.Errorf("inode %d: %w", inum, ErrInvalidInode)
	}
	return f(r)
}

// Create allocates the lowest-numbered free inode as an empty file.
func (fs *FileSys) Create() (common.Inum, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if !fs.mounted {
		return common.NULLINUM, ErrNotMounted
	}
	for blkno := fs.super.InodeStart(); blkno < fs.super.DataStart(); blkno++ {
		fs.locks.Acquire(blkno)
		inum, err := fs.createIn(blkno)
		fs.locks.Release(blkno)
		if err != nil || inum != common.NULLINUM {
			return inum, err
		}
	}
	return common.NULLINUM, ErrNoInodes
}

// createIn claims the first free slot in inode table block blkno, if any.
func (fs *FileSys) createIn(blkno common.Bnum) (common.Inum, error) {
	refs, err := inode.LoadBlock(fs.d, fs.super, blkno)
	if err != nil {
		return common.NULLINUM, err
	}
	for _, r := range refs {
		if r.Valid {
			continue
		}
		r.Init()
		if err := r.Store(fs.d); err != nil {
			return common.NULLINUM, err
		}
		util.DPrintf(1, "Create: inode %d\n", r.Inum)
		return r.Inum, nil
	}
	return common.NULLINUM, nil
}

// Delete frees inode inum and all of its blocks.
func (fs *FileSys) Delete(inum common.Inum) error {
	return fs.withInode(inum, func(r *inode.Ref) error {
		// collect the blocks before the inode forgets them
		bns, err := mkBmap(fs.d, fs.super, nil, r.Inode).blocks()
		if err != nil {
			return err
		}
		r.Reset()
		if err := r.Store(fs.d); err != nil {
			return err
		}
		for _, bn := range bns {
			fs.alloc.FreeNum(bn)
		}
		util.DPrintf(1, "Delete: inode %d, freed %d blocks\n", inum, len(bns))
		return nil
	})
}

// GetSize returns the size of file inum in bytes.
func (fs *FileSys) GetSize(inum common.Inum) (uint64, error) {
	var sz uint64
	err := fs.withInode(inum, func(r *inode.Ref) error {
		sz = r.Size
		return nil
	})
	return sz, err
}
